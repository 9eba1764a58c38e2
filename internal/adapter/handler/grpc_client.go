package handler

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

// InventoryClient calls InventoryService with the JSON codec.
type InventoryClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryClient(cc grpc.ClientConnInterface) *InventoryClient {
	return &InventoryClient{cc: cc}
}

func (c *InventoryClient) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, "/"+InventoryServiceName+"/"+method, in, out, grpc.CallContentSubtype(JSONCodecName))
}

func (c *InventoryClient) ListItems(ctx context.Context) (*ListItemsResponse, error) {
	out := new(ListItemsResponse)
	return out, c.invoke(ctx, "ListItems", &ListItemsRequest{}, out)
}

func (c *InventoryClient) GetItem(ctx context.Context, itemID int) (*InventoryItemResponse, error) {
	out := new(InventoryItemResponse)
	return out, c.invoke(ctx, "GetItem", &GetItemRequest{ItemID: itemID}, out)
}

func (c *InventoryClient) Reserve(ctx context.Context, itemID, quantity int) (*StockResponse, error) {
	out := new(StockResponse)
	return out, c.invoke(ctx, "Reserve", &StockRequest{ItemID: itemID, Quantity: &quantity}, out)
}

func (c *InventoryClient) Release(ctx context.Context, itemID, quantity int) (*StockResponse, error) {
	out := new(StockResponse)
	return out, c.invoke(ctx, "Release", &StockRequest{ItemID: itemID, Quantity: &quantity}, out)
}

// Stock sends a raw stock request to method (Reserve, Release or Confirm). A nil
// Quantity lets the server move a single unit.
func (c *InventoryClient) Stock(ctx context.Context, method string, req *StockRequest) (*StockResponse, error) {
	out := new(StockResponse)
	return out, c.invoke(ctx, method, req, out)
}

func (c *InventoryClient) Confirm(ctx context.Context, itemID, quantity int) (*StockResponse, error) {
	out := new(StockResponse)
	return out, c.invoke(ctx, "Confirm", &StockRequest{ItemID: itemID, Quantity: &quantity}, out)
}

func (c *InventoryClient) ListEvents(ctx context.Context, req *ListEventsRequest) (*ListEventsResponse, error) {
	out := new(ListEventsResponse)
	return out, c.invoke(ctx, "ListEvents", req, out)
}

// WatchEvents calls handle for every streamed event until ctx is done or the stream ends.
func (c *InventoryClient) WatchEvents(ctx context.Context, req *WatchEventsRequest, handle func(domain.AvailabilityEvent)) error {
	stream, err := c.cc.NewStream(ctx, &InventoryServiceDesc.Streams[0], "/"+InventoryServiceName+"/WatchEvents",
		grpc.CallContentSubtype(JSONCodecName))
	if err != nil {
		return err
	}
	if err := stream.SendMsg(req); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		var e domain.AvailabilityEvent
		if err := stream.RecvMsg(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		handle(e)
	}
}
