package mastergrpc

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"regionmaster/internal/master"
	api "regionmaster/pkg/api"
)

// Server exposes the coordinator and region manager over gRPC.
type Server struct {
	api.UnimplementedMasterServer
	coordinator *master.Coordinator
	regions     *master.RegionManager
	logger      *zap.Logger
}

func NewServer(coordinator *master.Coordinator, regions *master.RegionManager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{coordinator: coordinator, regions: regions, logger: logger.Named("master-rpc")}
}

func Register(server *grpc.Server, coordinator *master.Coordinator, regions *master.RegionManager, logger *zap.Logger) {
	api.RegisterMasterServer(server, NewServer(coordinator, regions, logger))
}

func (s *Server) ReportRegion(ctx context.Context, req *api.ReportRegionRequest) (*api.ReportRegionResponse, error) {
	report := master.StatusReport{
		Kind:   reportKindFromProto(req.GetKind()),
		Region: RegionFromProto(req.GetRegion()),
		Server: ServerFromProto(req.GetServer()),
	}
	if err := s.coordinator.Submit(report); err != nil {
		return nil, toStatus(err)
	}
	s.logger.Debug("status report accepted",
		zap.String("kind", report.Kind.String()),
		zap.String("region", report.Region.Name()),
		zap.String("server", report.Server.Name()))
	return &api.ReportRegionResponse{}, nil
}

func (s *Server) OfflineRegion(ctx context.Context, req *api.OfflineRegionRequest) (*api.OfflineRegionResponse, error) {
	if req.GetRegion() == nil || req.GetRegion().Table == "" {
		return nil, status.Error(codes.InvalidArgument, "region is required")
	}
	s.coordinator.MarkOffline(RegionFromProto(req.GetRegion()))
	return &api.OfflineRegionResponse{}, nil
}

func (s *Server) UnassignRegion(ctx context.Context, req *api.UnassignRegionRequest) (*api.UnassignRegionResponse, error) {
	if req.GetRegion() == nil || req.GetRegion().Table == "" {
		return nil, status.Error(codes.InvalidArgument, "region is required")
	}
	if err := s.coordinator.Unassign(ctx, RegionFromProto(req.GetRegion())); err != nil {
		return nil, toStatus(err)
	}
	return &api.UnassignRegionResponse{}, nil
}

func (s *Server) ClearOffline(ctx context.Context, req *api.ClearOfflineRequest) (*api.ClearOfflineResponse, error) {
	if req.GetRegion() == nil || req.GetRegion().Table == "" {
		return nil, status.Error(codes.InvalidArgument, "region is required")
	}
	s.coordinator.ClearOffline(RegionFromProto(req.GetRegion()))
	return &api.ClearOfflineResponse{}, nil
}

// ListOffline returns the offlined regions of a table in name order.
func (s *Server) ListOffline(ctx context.Context, req *api.ListOfflineRequest) (*api.ListOfflineResponse, error) {
	if req.GetTable() == "" {
		return nil, status.Error(codes.InvalidArgument, "table is required")
	}
	infos := s.regions.OfflinedForTable(req.GetTable())
	resp := &api.ListOfflineResponse{Regions: make([]*api.RegionInfo, 0, len(infos))}
	for _, info := range infos {
		resp.Regions = append(resp.Regions, RegionToProto(info))
	}
	return resp, nil
}

func (s *Server) DropTable(ctx context.Context, req *api.DropTableRequest) (*api.DropTableResponse, error) {
	if req.GetTable() == "" {
		return nil, status.Error(codes.InvalidArgument, "table is required")
	}
	s.coordinator.DropTable(req.GetTable())
	return &api.DropTableResponse{}, nil
}

func (s *Server) State(ctx context.Context, _ *api.StateRequest) (*api.StateResponse, error) {
	return snapshotToProto(s.regions.Snapshot(), s.coordinator.Pending()), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, master.ErrInvalidReport):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, master.ErrUnsupportedReport):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, master.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
