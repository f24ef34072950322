package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// --- Master messages ---

type RegionInfo struct {
	Table    string `json:"table"`
	StartKey []byte `json:"start_key,omitempty"`
	EndKey   []byte `json:"end_key,omitempty"`
	RegionId uint64 `json:"region_id"`
}

type ServerInfo struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	StartCode int64  `json:"startcode"`
}

type ReportKind int32

const (
	ReportKind_REPORT_KIND_UNSPECIFIED ReportKind = 0
	ReportKind_REPORT_KIND_OPEN        ReportKind = 1
	ReportKind_REPORT_KIND_CLOSE       ReportKind = 2
	ReportKind_REPORT_KIND_SPLIT       ReportKind = 3
)

type ReportRegionRequest struct {
	Kind   ReportKind  `json:"kind"`
	Region *RegionInfo `json:"region"`
	Server *ServerInfo `json:"server"`
}

type ReportRegionResponse struct{}

type OfflineRegionRequest struct {
	Region *RegionInfo `json:"region"`
}

type OfflineRegionResponse struct{}

type UnassignRegionRequest struct {
	Region *RegionInfo `json:"region"`
}

type UnassignRegionResponse struct{}

type ClearOfflineRequest struct {
	Region *RegionInfo `json:"region"`
}

type ClearOfflineResponse struct{}

type ListOfflineRequest struct {
	Table string `json:"table"`
}

type ListOfflineResponse struct {
	Regions []*RegionInfo `json:"regions"`
}

type DropTableRequest struct {
	Table string `json:"table"`
}

type DropTableResponse struct{}

type StateRequest struct{}

type RegionTransition struct {
	Region string `json:"region"`
	State  string `json:"state"`
	Server string `json:"server,omitempty"`
}

type CatalogPartition struct {
	Region  string `json:"region"`
	Address string `json:"address"`
}

type StateResponse struct {
	RootLocation        string              `json:"root_location"`
	InitialScanComplete bool                `json:"initial_scan_complete"`
	OnlineCatalog       []*CatalogPartition `json:"online_catalog"`
	PendingCatalogScan  []*CatalogPartition `json:"pending_catalog_scan"`
	Offlined            []string            `json:"offlined"`
	InTransition        []*RegionTransition `json:"in_transition"`
	OnlineRegions       int                 `json:"online_regions"`
	PendingOperations   int                 `json:"pending_operations"`
}

// --- Master service ---

type MasterServer interface {
	ReportRegion(context.Context, *ReportRegionRequest) (*ReportRegionResponse, error)
	OfflineRegion(context.Context, *OfflineRegionRequest) (*OfflineRegionResponse, error)
	UnassignRegion(context.Context, *UnassignRegionRequest) (*UnassignRegionResponse, error)
	ClearOffline(context.Context, *ClearOfflineRequest) (*ClearOfflineResponse, error)
	ListOffline(context.Context, *ListOfflineRequest) (*ListOfflineResponse, error)
	DropTable(context.Context, *DropTableRequest) (*DropTableResponse, error)
	State(context.Context, *StateRequest) (*StateResponse, error)
}

type UnimplementedMasterServer struct{}

func (UnimplementedMasterServer) ReportRegion(context.Context, *ReportRegionRequest) (*ReportRegionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ReportRegion not implemented")
}
func (UnimplementedMasterServer) OfflineRegion(context.Context, *OfflineRegionRequest) (*OfflineRegionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method OfflineRegion not implemented")
}
func (UnimplementedMasterServer) UnassignRegion(context.Context, *UnassignRegionRequest) (*UnassignRegionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UnassignRegion not implemented")
}
func (UnimplementedMasterServer) ClearOffline(context.Context, *ClearOfflineRequest) (*ClearOfflineResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ClearOffline not implemented")
}
func (UnimplementedMasterServer) ListOffline(context.Context, *ListOfflineRequest) (*ListOfflineResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListOffline not implemented")
}
func (UnimplementedMasterServer) DropTable(context.Context, *DropTableRequest) (*DropTableResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DropTable not implemented")
}
func (UnimplementedMasterServer) State(context.Context, *StateRequest) (*StateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method State not implemented")
}

type MasterClient interface {
	ReportRegion(ctx context.Context, in *ReportRegionRequest, opts ...grpc.CallOption) (*ReportRegionResponse, error)
	OfflineRegion(ctx context.Context, in *OfflineRegionRequest, opts ...grpc.CallOption) (*OfflineRegionResponse, error)
	UnassignRegion(ctx context.Context, in *UnassignRegionRequest, opts ...grpc.CallOption) (*UnassignRegionResponse, error)
	ClearOffline(ctx context.Context, in *ClearOfflineRequest, opts ...grpc.CallOption) (*ClearOfflineResponse, error)
	ListOffline(ctx context.Context, in *ListOfflineRequest, opts ...grpc.CallOption) (*ListOfflineResponse, error)
	DropTable(ctx context.Context, in *DropTableRequest, opts ...grpc.CallOption) (*DropTableResponse, error)
	State(ctx context.Context, in *StateRequest, opts ...grpc.CallOption) (*StateResponse, error)
}

type masterClient struct {
	cc grpc.ClientConnInterface
}

func NewMasterClient(cc grpc.ClientConnInterface) MasterClient {
	return &masterClient{cc: cc}
}

func (c *masterClient) ReportRegion(ctx context.Context, in *ReportRegionRequest, opts ...grpc.CallOption) (*ReportRegionResponse, error) {
	out := new(ReportRegionResponse)
	if err := c.cc.Invoke(ctx, "/regionmaster.api.Master/ReportRegion", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *masterClient) OfflineRegion(ctx context.Context, in *OfflineRegionRequest, opts ...grpc.CallOption) (*OfflineRegionResponse, error) {
	out := new(OfflineRegionResponse)
	if err := c.cc.Invoke(ctx, "/regionmaster.api.Master/OfflineRegion", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *masterClient) UnassignRegion(ctx context.Context, in *UnassignRegionRequest, opts ...grpc.CallOption) (*UnassignRegionResponse, error) {
	out := new(UnassignRegionResponse)
	if err := c.cc.Invoke(ctx, "/regionmaster.api.Master/UnassignRegion", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *masterClient) ClearOffline(ctx context.Context, in *ClearOfflineRequest, opts ...grpc.CallOption) (*ClearOfflineResponse, error) {
	out := new(ClearOfflineResponse)
	if err := c.cc.Invoke(ctx, "/regionmaster.api.Master/ClearOffline", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *masterClient) ListOffline(ctx context.Context, in *ListOfflineRequest, opts ...grpc.CallOption) (*ListOfflineResponse, error) {
	out := new(ListOfflineResponse)
	if err := c.cc.Invoke(ctx, "/regionmaster.api.Master/ListOffline", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *masterClient) DropTable(ctx context.Context, in *DropTableRequest, opts ...grpc.CallOption) (*DropTableResponse, error) {
	out := new(DropTableResponse)
	if err := c.cc.Invoke(ctx, "/regionmaster.api.Master/DropTable", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *masterClient) State(ctx context.Context, in *StateRequest, opts ...grpc.CallOption) (*StateResponse, error) {
	out := new(StateResponse)
	if err := c.cc.Invoke(ctx, "/regionmaster.api.Master/State", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

var masterServiceDesc = grpc.ServiceDesc{
	ServiceName: "regionmaster.api.Master",
	HandlerType: (*MasterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ReportRegion", Handler: _Master_ReportRegion_Handler},
		{MethodName: "OfflineRegion", Handler: _Master_OfflineRegion_Handler},
		{MethodName: "UnassignRegion", Handler: _Master_UnassignRegion_Handler},
		{MethodName: "ClearOffline", Handler: _Master_ClearOffline_Handler},
		{MethodName: "ListOffline", Handler: _Master_ListOffline_Handler},
		{MethodName: "DropTable", Handler: _Master_DropTable_Handler},
		{MethodName: "State", Handler: _Master_State_Handler},
	},
}

func RegisterMasterServer(s grpc.ServiceRegistrar, srv MasterServer) {
	s.RegisterService(&masterServiceDesc, srv)
}

func _Master_ReportRegion_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReportRegionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MasterServer).ReportRegion(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionmaster.api.Master/ReportRegion"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MasterServer).ReportRegion(ctx, req.(*ReportRegionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Master_OfflineRegion_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(OfflineRegionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MasterServer).OfflineRegion(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionmaster.api.Master/OfflineRegion"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MasterServer).OfflineRegion(ctx, req.(*OfflineRegionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Master_UnassignRegion_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UnassignRegionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MasterServer).UnassignRegion(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionmaster.api.Master/UnassignRegion"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MasterServer).UnassignRegion(ctx, req.(*UnassignRegionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Master_ClearOffline_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ClearOfflineRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MasterServer).ClearOffline(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionmaster.api.Master/ClearOffline"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MasterServer).ClearOffline(ctx, req.(*ClearOfflineRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Master_ListOffline_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListOfflineRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MasterServer).ListOffline(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionmaster.api.Master/ListOffline"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MasterServer).ListOffline(ctx, req.(*ListOfflineRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Master_DropTable_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(DropTableRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MasterServer).DropTable(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionmaster.api.Master/DropTable"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MasterServer).DropTable(ctx, req.(*DropTableRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Master_State_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MasterServer).State(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionmaster.api.Master/State"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MasterServer).State(ctx, req.(*StateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func (x *ReportRegionRequest) GetKind() ReportKind {
	if x != nil {
		return x.Kind
	}
	return ReportKind_REPORT_KIND_UNSPECIFIED
}

func (x *ReportRegionRequest) GetRegion() *RegionInfo {
	if x != nil {
		return x.Region
	}
	return nil
}

func (x *ReportRegionRequest) GetServer() *ServerInfo {
	if x != nil {
		return x.Server
	}
	return nil
}

func (x *OfflineRegionRequest) GetRegion() *RegionInfo {
	if x != nil {
		return x.Region
	}
	return nil
}

func (x *UnassignRegionRequest) GetRegion() *RegionInfo {
	if x != nil {
		return x.Region
	}
	return nil
}

func (x *ClearOfflineRequest) GetRegion() *RegionInfo {
	if x != nil {
		return x.Region
	}
	return nil
}

func (x *ListOfflineRequest) GetTable() string {
	if x != nil {
		return x.Table
	}
	return ""
}

func (x *ListOfflineResponse) GetRegions() []*RegionInfo {
	if x != nil {
		return x.Regions
	}
	return nil
}

func (x *DropTableRequest) GetTable() string {
	if x != nil {
		return x.Table
	}
	return ""
}
