package main

import (
	"flag"
	"log"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"clusterpipe"
	"clusterpipe/cluster"
)

func main() {
	seeds := flag.String("seeds", "", "comma-separated seed_host:port list")
	timeout := flag.Duration("timeout", 5*time.Second, "dial timeout for seed and node connections")
	flag.Parse()

	if *seeds == "" {
		log.Fatalf("clusterctl: -seeds is required")
	}

	printHostStats()

	client, err := clusterpipe.NewClient(strings.Split(*seeds, ","), clusterpipe.WithDialTimeout(*timeout))
	if err != nil {
		log.Fatalf("[ERR] bootstrap failed: %v", err)
	}
	defer client.Close()

	log.Printf("[✅] connected, %d nodes in shard map", len(client.Nodes()))
	for _, n := range client.Nodes() {
		log.Printf("  %s  %-7s  %s", n.ID, n.Role, n.Addr())
	}

	reply, err := client.Request(cluster.RawRequest{[]byte("PING")}).Get()
	if err != nil {
		log.Printf("[WARN] ping failed: %v", err)
	} else {
		log.Printf("[INFO] ping reply: %s", reply.String())
	}
}

func printHostStats() {
	if info, err := host.Info(); err == nil {
		log.Printf("[INFO] host %s (%s %s)", info.Hostname, info.Platform, info.KernelVersion)
	} else {
		log.Printf("[WARN] host.Info: %v", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		log.Printf("[INFO] memory: %d/%d MB used (%.1f%%)", vm.Used/1024/1024, vm.Total/1024/1024, vm.UsedPercent)
	} else {
		log.Printf("[WARN] mem.VirtualMemory: %v", err)
	}

	if pct, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(pct) > 0 {
		log.Printf("[INFO] cpu: %.1f%% busy", pct[0])
	} else if err != nil {
		log.Printf("[WARN] cpu.Percent: %v", err)
	}
}
