package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// --- Catalog messages ---

type CatalogRow struct {
	Region    string `json:"region"`
	Server    string `json:"server"`
	StartCode int64  `json:"startcode"`
}

type PutRowRequest struct {
	CatalogRegion string      `json:"catalog_region"`
	Row           *CatalogRow `json:"row"`
}

type PutRowResponse struct{}

type GetRowRequest struct {
	CatalogRegion string `json:"catalog_region"`
	Region        string `json:"region"`
}

type GetRowResponse struct {
	Row *CatalogRow `json:"row"`
}

type ScanRowsRequest struct {
	CatalogRegion string `json:"catalog_region"`
}

type ScanRowsResponse struct {
	Rows []*CatalogRow `json:"rows"`
}

// --- Catalog service ---

type CatalogServer interface {
	PutRow(context.Context, *PutRowRequest) (*PutRowResponse, error)
	GetRow(context.Context, *GetRowRequest) (*GetRowResponse, error)
	ScanRows(context.Context, *ScanRowsRequest) (*ScanRowsResponse, error)
}

type UnimplementedCatalogServer struct{}

func (UnimplementedCatalogServer) PutRow(context.Context, *PutRowRequest) (*PutRowResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PutRow not implemented")
}
func (UnimplementedCatalogServer) GetRow(context.Context, *GetRowRequest) (*GetRowResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetRow not implemented")
}
func (UnimplementedCatalogServer) ScanRows(context.Context, *ScanRowsRequest) (*ScanRowsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ScanRows not implemented")
}

type CatalogClient interface {
	PutRow(ctx context.Context, in *PutRowRequest, opts ...grpc.CallOption) (*PutRowResponse, error)
	GetRow(ctx context.Context, in *GetRowRequest, opts ...grpc.CallOption) (*GetRowResponse, error)
	ScanRows(ctx context.Context, in *ScanRowsRequest, opts ...grpc.CallOption) (*ScanRowsResponse, error)
}

type catalogClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogClient(cc grpc.ClientConnInterface) CatalogClient {
	return &catalogClient{cc: cc}
}

func (c *catalogClient) PutRow(ctx context.Context, in *PutRowRequest, opts ...grpc.CallOption) (*PutRowResponse, error) {
	out := new(PutRowResponse)
	if err := c.cc.Invoke(ctx, "/regionmaster.api.Catalog/PutRow", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *catalogClient) GetRow(ctx context.Context, in *GetRowRequest, opts ...grpc.CallOption) (*GetRowResponse, error) {
	out := new(GetRowResponse)
	if err := c.cc.Invoke(ctx, "/regionmaster.api.Catalog/GetRow", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *catalogClient) ScanRows(ctx context.Context, in *ScanRowsRequest, opts ...grpc.CallOption) (*ScanRowsResponse, error) {
	out := new(ScanRowsResponse)
	if err := c.cc.Invoke(ctx, "/regionmaster.api.Catalog/ScanRows", in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: "regionmaster.api.Catalog",
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PutRow", Handler: _Catalog_PutRow_Handler},
		{MethodName: "GetRow", Handler: _Catalog_GetRow_Handler},
		{MethodName: "ScanRows", Handler: _Catalog_ScanRows_Handler},
	},
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

func _Catalog_PutRow_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PutRowRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).PutRow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionmaster.api.Catalog/PutRow"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServer).PutRow(ctx, req.(*PutRowRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Catalog_GetRow_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetRowRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).GetRow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionmaster.api.Catalog/GetRow"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServer).GetRow(ctx, req.(*GetRowRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Catalog_ScanRows_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ScanRowsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).ScanRows(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/regionmaster.api.Catalog/ScanRows"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServer).ScanRows(ctx, req.(*ScanRowsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (x *PutRowRequest) GetCatalogRegion() string {
	if x != nil {
		return x.CatalogRegion
	}
	return ""
}

func (x *PutRowRequest) GetRow() *CatalogRow {
	if x != nil {
		return x.Row
	}
	return nil
}

func (x *GetRowRequest) GetCatalogRegion() string {
	if x != nil {
		return x.CatalogRegion
	}
	return ""
}

func (x *GetRowRequest) GetRegion() string {
	if x != nil {
		return x.Region
	}
	return ""
}

func (x *GetRowResponse) GetRow() *CatalogRow {
	if x != nil {
		return x.Row
	}
	return nil
}

func (x *ScanRowsRequest) GetCatalogRegion() string {
	if x != nil {
		return x.CatalogRegion
	}
	return ""
}

func (x *ScanRowsResponse) GetRows() []*CatalogRow {
	if x != nil {
		return x.Rows
	}
	return nil
}
