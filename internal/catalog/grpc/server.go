package catalogrpc

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"regionmaster/internal/catalog"
	api "regionmaster/pkg/api"
)

// Server adapts a catalog.Store to the Catalog gRPC API.
type Server struct {
	api.UnimplementedCatalogServer
	store  catalog.Store
	logger *zap.Logger
}

func NewServer(store catalog.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{store: store, logger: logger.Named("catalog-server")}
}

func Register(server *grpc.Server, store catalog.Store, logger *zap.Logger) {
	api.RegisterCatalogServer(server, NewServer(store, logger))
}

func (s *Server) PutRow(ctx context.Context, req *api.PutRowRequest) (*api.PutRowResponse, error) {
	if req.GetCatalogRegion() == "" {
		return nil, status.Error(codes.InvalidArgument, "catalog region is empty")
	}
	if req.Row == nil {
		return nil, status.Error(codes.InvalidArgument, "row is missing")
	}
	row := rowFromProto(req.Row)
	if err := s.store.Put(req.CatalogRegion, row); err != nil {
		if errors.Is(err, catalog.ErrInvalidRow) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.logger.Error("put row failed", zap.String("catalog", req.CatalogRegion), zap.String("row", row.Region), zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	s.logger.Debug("row updated",
		zap.String("catalog", req.CatalogRegion),
		zap.String("row", row.Region),
		zap.String("server", row.Assignment.Server),
		zap.Int64("startcode", row.Assignment.StartCode))
	return &api.PutRowResponse{}, nil
}

func (s *Server) GetRow(ctx context.Context, req *api.GetRowRequest) (*api.GetRowResponse, error) {
	row, err := s.store.Get(req.GetCatalogRegion(), req.GetRegion())
	if err != nil {
		if errors.Is(err, catalog.ErrRowNotFound) {
			return nil, status.Error(codes.NotFound, "row not found")
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &api.GetRowResponse{Row: rowToProto(row)}, nil
}

func (s *Server) ScanRows(ctx context.Context, req *api.ScanRowsRequest) (*api.ScanRowsResponse, error) {
	if req.GetCatalogRegion() == "" {
		return nil, status.Error(codes.InvalidArgument, "catalog region is empty")
	}
	resp := &api.ScanRowsResponse{}
	err := s.store.Scan(req.CatalogRegion, func(row catalog.Row) error {
		resp.Rows = append(resp.Rows, rowToProto(row))
		return nil
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func rowToProto(row catalog.Row) *api.CatalogRow {
	return &api.CatalogRow{
		Region:    row.Region,
		Server:    row.Assignment.Server,
		StartCode: row.Assignment.StartCode,
	}
}

func rowFromProto(p *api.CatalogRow) catalog.Row {
	if p == nil {
		return catalog.Row{}
	}
	return catalog.Row{
		Region: p.Region,
		Assignment: catalog.Assignment{
			Server:    p.Server,
			StartCode: p.StartCode,
		},
	}
}
