package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/suparena/docstore"
	"github.com/suparena/docstore/engine/memory"
	"github.com/suparena/docstore/server"
)

var (
	addrFlag    = flag.String("addr", ":8787", "Address to listen on")
	quietFlag   = flag.Bool("quiet", false, "Disable request logging")
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
)

func main() {
	flag.Parse()

	if *versionFlag || *vFlag {
		info := docstore.GetVersionInfo()
		fmt.Printf("docstore-emulator version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	if *quietFlag {
		logger = zap.NewNop()
	}

	handler := server.New(
		memory.New(memory.WithLogger(logger)),
		server.WithLogger(logger),
	)

	logger.Info("emulator listening", zap.String("addr", *addrFlag))
	if err := http.ListenAndServe(*addrFlag, handler); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
