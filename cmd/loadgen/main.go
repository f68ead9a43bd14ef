package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/rl1809/catalog/internal/adapter/handler"
)

type options struct {
	addr        string
	userID      string
	productID   string
	requests    int
	concurrency int
	quantity    int
	timeout     time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "loadgen",
		Short:        "Fire PlaceOrder calls at a running catalog server and tally the outcomes",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			rep.print(cmd.OutOrStdout(), opts)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "localhost:50051", "gRPC address of the catalog server")
	f.StringVar(&opts.userID, "user", "", "id of an existing user")
	f.StringVar(&opts.productID, "product", "", "id of an existing product")
	f.IntVar(&opts.requests, "requests", 50, "total PlaceOrder calls")
	f.IntVar(&opts.concurrency, "concurrency", 10, "calls in flight at once")
	f.IntVar(&opts.quantity, "quantity", 1, "quantity per order")
	f.DurationVar(&opts.timeout, "timeout", 5*time.Second, "per-call timeout")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

type report struct {
	tally   map[codes.Code]int
	elapsed time.Duration
}

func run(ctx context.Context, opts options) (report, error) {
	if opts.concurrency < 1 {
		opts.concurrency = 1
	}
	conn, err := grpc.NewClient(opts.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return report{}, fmt.Errorf("dial %s: %w", opts.addr, err)
	}
	defer conn.Close()
	client := handler.NewOrderServiceClient(conn)

	var (
		mu      sync.Mutex
		tally   = map[codes.Code]int{}
		wg      sync.WaitGroup
		limiter = make(chan struct{}, opts.concurrency)
	)
	start := time.Now()
	for i := 0; i < opts.requests; i++ {
		wg.Add(1)
		limiter <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-limiter }()

			callCtx, cancel := context.WithTimeout(ctx, opts.timeout)
			defer cancel()
			_, err := client.PlaceOrder(callCtx, map[string]any{
				"request_id": uuid.NewString(),
				"user_id":    opts.userID,
				"product_id": opts.productID,
				"quantity":   opts.quantity,
			})

			mu.Lock()
			tally[status.Code(err)]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	return report{tally: tally, elapsed: time.Since(start)}, nil
}

func (r report) print(out io.Writer, opts options) {
	fmt.Fprintln(out, "========== LOAD RESULTS ==========")
	fmt.Fprintf(out, "Requests:     %d\n", opts.requests)
	fmt.Fprintf(out, "Concurrency:  %d\n", opts.concurrency)
	fmt.Fprintf(out, "Duration:     %v\n", r.elapsed)
	for _, code := range sortedCodes(r.tally) {
		fmt.Fprintf(out, "%-20s %d\n", code.String()+":", r.tally[code])
	}
	fmt.Fprintln(out, "==================================")
}

func sortedCodes(tally map[codes.Code]int) []codes.Code {
	keys := make([]codes.Code, 0, len(tally))
	for c := range tally {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
