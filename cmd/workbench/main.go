package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/api"
	"github.com/azdo-tools/pipeline-migration-workbench/internal/config"
	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
	"github.com/azdo-tools/pipeline-migration-workbench/internal/platform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("workbench %s (commit: %s, built: %s)\n", version, commit, date)
			os.Exit(0)
		}
	}

	cfg := config.Parse()

	server := api.NewServer(cfg.Migration)

	// Load pre-configured connections from the config file
	for _, cc := range cfg.Connections {
		conn := &models.Connection{
			Name:       cc.Name,
			Role:       cc.Role,
			Scheme:     cc.Scheme,
			Host:       cc.Host,
			Port:       cc.Port,
			Collection: cc.Collection,
			Project:    cc.Project,
			Token:      cc.Token,
			Insecure:   cc.Insecure,
		}
		if conn.Role == "" {
			conn.Role = "source"
		}
		if conn.Scheme == "" {
			conn.Scheme = "https"
		}
		if conn.Port == 0 {
			if conn.Scheme == "https" {
				conn.Port = 443
			} else {
				conn.Port = 80
			}
		}
		server.Connections.Create(conn)
		fmt.Printf("Loaded connection: %s (%s)\n", conn.Name, conn.BaseURL())

		checkConnection(server.Connections, conn)
	}

	fmt.Printf("Pipeline Migration Workbench %s starting on %s\n", version, cfg.Listen)

	if err := http.ListenAndServe(cfg.Listen, api.NewRouter(server)); err != nil {
		log.Fatal(err)
	}
}

// checkConnection verifies reachability and credentials early and records
// the result on the connection.
func checkConnection(store *models.ConnectionStore, conn *models.Connection) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	coll := platform.NewCollection(conn)

	pingStatus, pingError := "ok", ""
	if err := coll.Ping(ctx); err != nil {
		pingStatus = "error"
		pingError = err.Error()
		fmt.Printf("  PING FAILED: %s: %v\n", conn.Name, err)
	} else {
		fmt.Printf("  PING OK: %s: reachable\n", conn.Name)
	}

	authStatus, authError := "unknown", ""
	if pingStatus == "ok" {
		if conn.Token == "" {
			authStatus = "error"
			authError = "no token configured"
			fmt.Printf("  AUTH FAILED: %s: %s\n", conn.Name, authError)
		} else if err := coll.CheckAuth(ctx); err != nil {
			authStatus = "error"
			authError = err.Error()
			fmt.Printf("  AUTH FAILED: %s: %v\n", conn.Name, err)
		} else {
			authStatus = "ok"
			fmt.Printf("  AUTH OK: %s: authenticated successfully\n", conn.Name)
		}
	}
	store.SetHealth(conn.ID, pingStatus, pingError, authStatus, authError)
}
