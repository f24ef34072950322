package mastergrpc

import (
	"regionmaster/internal/master"
	"regionmaster/internal/region"
	api "regionmaster/pkg/api"
)

func RegionToProto(info region.Info) *api.RegionInfo {
	return &api.RegionInfo{
		Table:    info.Table,
		StartKey: append([]byte(nil), info.Range.Start...),
		EndKey:   append([]byte(nil), info.Range.End...),
		RegionId: info.ID,
	}
}

func RegionFromProto(pb *api.RegionInfo) region.Info {
	if pb == nil {
		return region.Info{}
	}
	return region.NewInfo(pb.Table, pb.StartKey, pb.EndKey, pb.RegionId)
}

func ServerToProto(s region.Server) *api.ServerInfo {
	return &api.ServerInfo{Host: s.Host, Port: s.Port, StartCode: s.StartCode}
}

func ServerFromProto(pb *api.ServerInfo) region.Server {
	if pb == nil {
		return region.Server{}
	}
	return region.Server{Host: pb.Host, Port: pb.Port, StartCode: pb.StartCode}
}

func reportKindFromProto(kind api.ReportKind) master.ReportKind {
	switch kind {
	case api.ReportKind_REPORT_KIND_OPEN:
		return master.ReportOpen
	case api.ReportKind_REPORT_KIND_CLOSE:
		return master.ReportClose
	case api.ReportKind_REPORT_KIND_SPLIT:
		return master.ReportSplit
	default:
		return 0
	}
}

func snapshotToProto(snap master.Snapshot, pending int) *api.StateResponse {
	resp := &api.StateResponse{
		RootLocation:        snap.RootLocation,
		InitialScanComplete: snap.InitialScanComplete,
		OnlineRegions:       snap.OnlineRegions,
		PendingOperations:   pending,
	}
	for _, loc := range snap.OnlineCatalog {
		resp.OnlineCatalog = append(resp.OnlineCatalog, &api.CatalogPartition{Region: loc.Region.Name(), Address: loc.Address})
	}
	for _, loc := range snap.PendingCatalogScan {
		resp.PendingCatalogScan = append(resp.PendingCatalogScan, &api.CatalogPartition{Region: loc.Region.Name(), Address: loc.Address})
	}
	for _, info := range snap.Offlined {
		resp.Offlined = append(resp.Offlined, info.Name())
	}
	for _, st := range snap.InTransition {
		rt := &api.RegionTransition{Region: st.Region.Name(), State: st.State.String()}
		if !st.Server.IsZero() {
			rt.Server = st.Server.Name()
		}
		resp.InTransition = append(resp.InTransition, rt)
	}
	return resp
}
