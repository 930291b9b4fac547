package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/witanlabs/gridkit/config"
	"github.com/witanlabs/gridkit/orchestrator"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve workbook builds over a websocket",
	Long: `Run a websocket host that accepts build requests and streams
execution back to the client.

The client sends one request frame:
  {"prompt": "Create a sales report with charts"}

The server replies with a frame per event:
  {"type": "progress", "progress": {...}}   before each task
  {"type": "log", "entry": {...}}           after each task
  {"type": "done", "state": "...", "workbook": {...}}

Examples:
  gridkit serve
  gridkit serve --addr :9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

type buildRequest struct {
	Prompt string `json:"prompt"`
}

type buildFrame struct {
	Type     string                 `json:"type"`
	Progress *orchestrator.Progress `json:"progress,omitempty"`
	Entry    *orchestrator.LogEntry `json:"entry,omitempty"`
	State    string                 `json:"state,omitempty"`
	Workbook any                    `json:"workbook,omitempty"`
}

func runServe(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	mux := http.NewServeMux()
	mux.HandleFunc("/build", handleBuild)

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("listening", slog.String("addr", serveAddr))
	return srv.ListenAndServe()
}

func handleBuild(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", slog.String("error", err.Error()))
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	var req buildRequest
	if err := wsjson.Read(ctx, conn, &req); err != nil {
		slog.Warn("bad build request", slog.String("error", err.Error()))
		return
	}

	cfg := config.Load()
	o := orchestrator.New(orchestrator.Options{
		Analyzer:        newAnalyzer(),
		TaskDelay:       cfg.Orchestrator.TaskDelay(),
		StreamCellDelay: cfg.Orchestrator.StreamCellDelay(),
		Progress: func(p orchestrator.Progress) {
			send(ctx, conn, buildFrame{Type: "progress", Progress: &p})
		},
	})

	log := o.Run(req.Prompt)
	for i := range log {
		send(ctx, conn, buildFrame{Type: "log", Entry: &log[i]})
	}
	send(ctx, conn, buildFrame{
		Type:     "done",
		State:    o.State().String(),
		Workbook: o.Workbook(),
	})

	conn.Close(websocket.StatusNormalClosure, "")
}

func send(ctx context.Context, conn *websocket.Conn, frame buildFrame) {
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := wsjson.Write(writeCtx, conn, frame); err != nil {
		slog.Warn("websocket write failed",
			slog.String("type", frame.Type),
			slog.String("error", err.Error()))
	}
}
