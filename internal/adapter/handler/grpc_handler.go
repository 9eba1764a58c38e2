package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/crypto-pins/internal/core/domain"
	"github.com/rl1809/crypto-pins/internal/core/service"
)

const InventoryServiceName = "cryptopins.v1.InventoryService"

const watchBuffer = 64

type ListItemsRequest struct{}

type ListItemsResponse struct {
	Items []InventoryItemResponse `json:"items"`
}

type GetItemRequest struct {
	ItemID int `json:"itemId"`
}

// StockRequest moves one unit when Quantity is nil.
type StockRequest struct {
	ItemID   int  `json:"itemId"`
	Quantity *int `json:"quantity,omitempty"`
}

type StockResponse struct {
	Success bool                  `json:"success"`
	Item    InventoryItemResponse `json:"item"`
}

// ListEventsRequest filters by item and type. Zero values match everything.
type ListEventsRequest struct {
	ItemID int              `json:"itemId,omitempty"`
	Type   domain.EventType `json:"type,omitempty"`
}

type ListEventsResponse struct {
	Events []domain.AvailabilityEvent `json:"events"`
}

type WatchEventsRequest struct {
	ItemID int                `json:"itemId,omitempty"`
	Types  []domain.EventType `json:"types,omitempty"`
}

type InventoryServiceServer interface {
	ListItems(context.Context, *ListItemsRequest) (*ListItemsResponse, error)
	GetItem(context.Context, *GetItemRequest) (*InventoryItemResponse, error)
	Reserve(context.Context, *StockRequest) (*StockResponse, error)
	Release(context.Context, *StockRequest) (*StockResponse, error)
	Confirm(context.Context, *StockRequest) (*StockResponse, error)
	ListEvents(context.Context, *ListEventsRequest) (*ListEventsResponse, error)
	WatchEvents(*WatchEventsRequest, grpc.ServerStream) error
}

type GRPCHandler struct {
	availability *service.AvailabilityService
	log          zerolog.Logger
}

func NewGRPCHandler(availability *service.AvailabilityService, log zerolog.Logger) *GRPCHandler {
	return &GRPCHandler{availability: availability, log: log}
}

func (h *GRPCHandler) ListItems(ctx context.Context, req *ListItemsRequest) (*ListItemsResponse, error) {
	return &ListItemsResponse{Items: toItemResponses(h.availability.Store().Items())}, nil
}

func (h *GRPCHandler) GetItem(ctx context.Context, req *GetItemRequest) (*InventoryItemResponse, error) {
	item, ok := h.availability.Store().Get(req.ItemID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "item %d not found", req.ItemID)
	}
	resp := toItemResponse(item)
	return &resp, nil
}

func (h *GRPCHandler) Reserve(ctx context.Context, req *StockRequest) (*StockResponse, error) {
	return h.operate(req, h.availability.Store().Reserve)
}

func (h *GRPCHandler) Release(ctx context.Context, req *StockRequest) (*StockResponse, error) {
	return h.operate(req, h.availability.Store().Release)
}

func (h *GRPCHandler) Confirm(ctx context.Context, req *StockRequest) (*StockResponse, error) {
	return h.operate(req, h.availability.Store().Confirm)
}

// operate reports refused operations in the response, like a sold out purchase.
func (h *GRPCHandler) operate(req *StockRequest, op func(id, quantity int) bool) (*StockResponse, error) {
	quantity, valid := quantityOrDefault(req.Quantity)
	if !valid {
		return nil, status.Error(codes.InvalidArgument, "quantity must be positive")
	}
	if _, ok := h.availability.Store().Get(req.ItemID); !ok {
		return nil, status.Errorf(codes.NotFound, "item %d not found", req.ItemID)
	}

	ok := op(req.ItemID, quantity)
	item, _ := h.availability.Store().Get(req.ItemID)
	return &StockResponse{Success: ok, Item: toItemResponse(item)}, nil
}

func (h *GRPCHandler) ListEvents(ctx context.Context, req *ListEventsRequest) (*ListEventsResponse, error) {
	sink := h.availability.Sink()

	var events []domain.AvailabilityEvent
	switch {
	case req.ItemID != 0:
		events = sink.ItemEvents(req.ItemID)
	case req.Type != "":
		events = sink.EventsByType(req.Type)
	default:
		events = sink.Events()
	}

	if req.ItemID != 0 && req.Type != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Type == req.Type {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	return &ListEventsResponse{Events: events}, nil
}

// WatchEvents streams new events until the client goes away. Events are dropped for
// a client that falls more than watchBuffer events behind.
func (h *GRPCHandler) WatchEvents(req *WatchEventsRequest, stream grpc.ServerStream) error {
	sub := service.Subscription{Types: req.Types}
	if len(sub.Types) == 0 {
		sub.Types = domain.AllEventTypes()
	}
	if req.ItemID != 0 {
		id := req.ItemID
		sub.ItemID = &id
	}

	events := make(chan domain.AvailabilityEvent, watchBuffer)
	sub.Callback = func(e domain.AvailabilityEvent) {
		select {
		case events <- e:
		default:
			h.log.Warn().Str("event_id", e.ID).Msg("watcher too slow, event dropped")
		}
	}
	unsubscribe := h.availability.Sink().Subscribe(sub)
	defer unsubscribe()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			if err := stream.SendMsg(&e); err != nil {
				return err
			}
		}
	}
}

func RegisterInventoryServer(s *grpc.Server, srv InventoryServiceServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: InventoryServiceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListItems", InventoryServiceServer.ListItems),
		unary("GetItem", InventoryServiceServer.GetItem),
		unary("Reserve", InventoryServiceServer.Reserve),
		unary("Release", InventoryServiceServer.Release),
		unary("Confirm", InventoryServiceServer.Confirm),
		unary("ListEvents", InventoryServiceServer.ListEvents),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchEvents",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(WatchEventsRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				return srv.(InventoryServiceServer).WatchEvents(req, stream)
			},
		},
	},
}

func unary[Req, Resp any](method string, call func(InventoryServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + InventoryServiceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			server := srv.(InventoryServiceServer)
			if interceptor == nil {
				return call(server, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(server, ctx, req.(*Req))
			})
		},
	}
}

// LoggingInterceptor logs every unary call with its duration and status code.
func LoggingInterceptor(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		event := log.Debug()
		if err != nil {
			event = log.Warn().Err(err)
		}
		event.Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("grpc call")
		return resp, err
	}
}
