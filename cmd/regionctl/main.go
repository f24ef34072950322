package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	mastergrpc "regionmaster/internal/master/grpc"
	"regionmaster/internal/region"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "state":
		stateCmd(os.Args[2:])
	case "region":
		regionCmd(os.Args[2:])
	case "table":
		tableCmd(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `regionctl

Usage:
  regionctl state           --addr <host:port>
  regionctl region offline  --addr <host:port> --table <t> --start <k> --end <k> --id <n>
  regionctl region online   --addr <host:port> --table <t> --start <k> --end <k> --id <n>
  regionctl region unassign --addr <host:port> --table <t> --start <k> --end <k> --id <n>
  regionctl region open     --addr <host:port> --table <t> --start <k> --end <k> --id <n> --server <host,port,startcode>
  regionctl table drop      --addr <host:port> --table <t>
  regionctl table offlined  --addr <host:port> --table <t>
`)
}

func dial(addr string) (*mastergrpc.Client, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	client, err := mastergrpc.Dial(ctx, addr, 5*time.Second)
	if err != nil {
		cancel()
		fmt.Fprintf(os.Stderr, "dial error: %v\n", err)
		os.Exit(1)
	}
	return client, ctx, cancel
}

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:60000", "master gRPC address")
	_ = fs.Parse(args)

	client, ctx, cancel := dial(*addr)
	defer cancel()
	defer client.Close()

	state, err := client.State(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "state error: %v\n", err)
		os.Exit(1)
	}
	root := state.RootLocation
	if root == "" {
		root = "(unknown)"
	}
	fmt.Printf("root=%s initial_scan_complete=%t online_regions=%d pending_operations=%d\n",
		root, state.InitialScanComplete, state.OnlineRegions, state.PendingOperations)
	for _, p := range state.OnlineCatalog {
		fmt.Printf("catalog online  %s %s\n", p.Region, p.Address)
	}
	for _, p := range state.PendingCatalogScan {
		fmt.Printf("catalog pending %s %s\n", p.Region, p.Address)
	}
	for _, rt := range state.InTransition {
		fmt.Printf("transition %s state=%s server=%s\n", rt.Region, rt.State, rt.Server)
	}
	for _, name := range state.Offlined {
		fmt.Printf("offlined %s\n", name)
	}
}

type regionFlags struct {
	addr  *string
	table *string
	start *string
	end   *string
	id    *uint64
}

func newRegionFlags(fs *flag.FlagSet) regionFlags {
	return regionFlags{
		addr:  fs.String("addr", "127.0.0.1:60000", "master gRPC address"),
		table: fs.String("table", "", "table name"),
		start: fs.String("start", "", "region start key"),
		end:   fs.String("end", "", "region end key"),
		id:    fs.Uint64("id", 0, "region id"),
	}
}

func (f regionFlags) info() region.Info {
	if *f.table == "" {
		fmt.Fprintln(os.Stderr, "--table is required")
		os.Exit(1)
	}
	return region.NewInfo(*f.table, []byte(*f.start), []byte(*f.end), *f.id)
}

func regionCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	fs := flag.NewFlagSet("region "+args[0], flag.ExitOnError)
	rf := newRegionFlags(fs)
	serverName := fs.String("server", "", "reporting server as host,port,startcode")
	_ = fs.Parse(args[1:])
	info := rf.info()

	client, ctx, cancel := dial(*rf.addr)
	defer cancel()
	defer client.Close()

	var err error
	switch args[0] {
	case "offline":
		err = client.Offline(ctx, info)
	case "online":
		err = client.ClearOffline(ctx, info)
	case "unassign":
		err = client.Unassign(ctx, info)
	case "open":
		server, perr := region.ParseServerName(*serverName)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "--server: %v\n", perr)
			os.Exit(1)
		}
		err = client.ReportOpen(ctx, info, server)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s error: %v\n", args[0], err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func tableCmd(args []string) {
	if len(args) < 1 || (args[0] != "drop" && args[0] != "offlined") {
		usage()
		os.Exit(1)
	}
	fs := flag.NewFlagSet("table "+args[0], flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:60000", "master gRPC address")
	table := fs.String("table", "", "table name")
	_ = fs.Parse(args[1:])
	if *table == "" {
		fmt.Fprintln(os.Stderr, "--table is required")
		os.Exit(1)
	}

	client, ctx, cancel := dial(*addr)
	defer cancel()
	defer client.Close()

	if args[0] == "offlined" {
		infos, err := client.ListOffline(ctx, *table)
		if err != nil {
			fmt.Fprintf(os.Stderr, "offlined error: %v\n", err)
			os.Exit(1)
		}
		for _, info := range infos {
			fmt.Println(info.Name())
		}
		return
	}

	if err := client.DropTable(ctx, *table); err != nil {
		fmt.Fprintf(os.Stderr, "drop error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}
