package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/crypto-pins/internal/adapter/handler"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "gRPC server address")
	itemID := flag.Int("item", 4, "item to reserve")
	totalRequests := flag.Int("requests", 50, "concurrent reservations")
	release := flag.Bool("release", true, "release successful reservations afterwards")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := context.Background()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create client")
	}
	defer conn.Close()
	client := handler.NewInventoryClient(conn)

	before, err := client.GetItem(ctx, *itemID)
	if err != nil {
		log.Fatal().Err(err).Int("item_id", *itemID).Msg("failed to read item")
	}
	expected := min(before.Sellable, *totalRequests)

	// Counters
	var successCount atomic.Int32
	var refusedCount atomic.Int32
	var errorCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := client.Reserve(ctx, *itemID, 1)
			switch {
			case err != nil:
				errorCount.Add(1)
				log.Warn().Err(err).Msg("reserve failed")
			case resp.Success:
				successCount.Add(1)
			default:
				refusedCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	refused := refusedCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Item:             %s (#%d)\n", before.Name, before.ID)
	fmt.Printf("Sellable Before:  %d\n", before.Sellable)
	fmt.Printf("Total Requests:   %d\n", *totalRequests)
	fmt.Printf("Reserved:         %d\n", success)
	fmt.Printf("Refused:          %d\n", refused)
	fmt.Printf("Errors:           %d\n", errorCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// The ticker may move stock while the test runs, so the counts are only a guide
	if int(success) == expected && int(refused) == *totalRequests-expected {
		fmt.Printf("PASS: %d reservations succeeded, %d refused\n", success, refused)
	} else {
		fmt.Printf("WARN: expected %d/%d, got %d/%d\n", expected, *totalRequests-expected, success, refused)
	}

	after, err := client.GetItem(ctx, *itemID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read item")
	}
	fmt.Printf("Reserved Stock:   %d -> %d\n", before.ReservedStock, after.ReservedStock)
	if after.AvailableStock < after.ReservedStock {
		fmt.Println("FAIL: reserved exceeds available")
	} else {
		fmt.Println("PASS: reserved within available")
	}

	if *release && success > 0 {
		if _, err := client.Release(ctx, *itemID, int(success)); err != nil {
			log.Error().Err(err).Msg("failed to release reservations")
		}
	}
}
