// Package main provides the entry point for the qlty CLI.
package main

import (
	"fmt"
	"log"
	"net/http"
	nethttppprof "net/http/pprof"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/qlty-go/qlty/cmd/qlty/commands"
	"github.com/qlty-go/qlty/internal/qltyerr"
	"github.com/qlty-go/qlty/pkg/version"
)

// watchdogInterval is the polling interval for the memory watchdog; qlty's
// install phase shells out to package managers (pip/npm/gem) and its invoke
// phase runs many subprocess tool invocations concurrently, either of which
// can leak native memory the Go runtime never sees.
const watchdogInterval = 10 * time.Second

// megabyte is 1 MiB in bytes, used for unit conversions.
const megabyte = 1024 * 1024

// pprofReadHeaderTimeout is the read header timeout for the pprof HTTP server.
const pprofReadHeaderTimeout = 10 * time.Second

var (
	verbose bool
	quiet   bool
)

// readRSSMiB reads current RSS from /proc/self/statm.
func readRSSMiB() int64 {
	f, err := os.Open("/proc/self/statm")
	if err != nil {
		return 0
	}
	defer f.Close()

	var vsize, rss int64

	if _, err := fmt.Fscan(f, &vsize); err != nil {
		return 0
	}

	if _, err := fmt.Fscan(f, &rss); err != nil {
		return 0
	}

	return rss * int64(os.Getpagesize()) / megabyte
}

// startMemoryWatchdog logs RSS and goroutine counts periodically, so a run
// that install-races dozens of tools or runs an unbounded number of
// concurrent invocations leaves a trail pointing at the offending phase.
func startMemoryWatchdog() {
	go func() {
		for {
			time.Sleep(watchdogInterval)

			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)

			log.Printf("mem RSS=%dMiB GoHeap=%dMiB goroutines=%d",
				readRSSMiB(), ms.HeapInuse/megabyte, runtime.NumGoroutine())
		}
	}()
}

// ensureMallocTunables re-execs the process with glibc malloc arena limits
// set before the first allocation, the only point at which glibc reads
// them. Without this, git2go's CGO allocations under concurrent invocation
// workers can fragment arenas far beyond what the Go heap shows.
func ensureMallocTunables() {
	if os.Getenv("MALLOC_ARENA_MAX") != "" {
		return
	}

	exe, err := os.Executable()
	if err != nil {
		return
	}

	os.Setenv("MALLOC_ARENA_MAX", "2")
	os.Setenv("MALLOC_MMAP_THRESHOLD_", "32768")

	if execErr := syscall.Exec(exe, os.Args, os.Environ()); execErr != nil {
		log.Printf("re-exec failed: %v", execErr)
	}
}

func main() {
	ensureMallocTunables()

	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/debug/pprof/", nethttppprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", nethttppprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", nethttppprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", nethttppprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", nethttppprof.Trace)

		server := &http.Server{
			Addr:              "localhost:6060",
			Handler:           mux,
			ReadHeaderTimeout: pprofReadHeaderTimeout,
		}

		log.Println(server.ListenAndServe())
	}()

	startMemoryWatchdog()

	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "qlty",
		Short: "qlty - unified code quality CLI",
		Long: `qlty installs and orchestrates third-party linters, formatters, and type
checkers behind a single configuration and reporting surface.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	commands.Register(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(qltyerr.ExitCode(err))
	}
}
