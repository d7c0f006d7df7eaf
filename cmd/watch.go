package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/mixtools/tcnet/client"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// json is a drop-in replacement for encoding/json with better performance
var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	watchInterval time.Duration
	watchJSON     bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Join the segment and print layer telemetry on a timer",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "refresh interval")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "emit raw telemetry events as JSON lines")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := client.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Disconnect()

	if watchJSON {
		return watchEvents(ctx, c)
	}
	return watchLayers(ctx, c)
}

// watchEvents streams every decoded packet as one JSON object per line.
func watchEvents(ctx context.Context, c *client.Client) error {
	events, cancel := c.Subscribe(256)
	defer cancel()

	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			record := map[string]interface{}{"event": eventName(ev.Type)}
			if ev.Packet != nil {
				record["node_id"] = ev.Packet.Head().NodeID
				record["packet"] = ev.Packet
			}
			if ev.Peer != nil {
				record["peer"] = ev.Peer
			}
			if err := enc.Encode(record); err != nil {
				return err
			}
		}
	}
}

// watchLayers polls the default peer's decks and renders them as a table.
func watchLayers(ctx context.Context, c *client.Client) error {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			printLayers(ctx, c)
		}
	}
}

func printLayers(ctx context.Context, c *client.Client) {
	rows := pterm.TableData{{"Layer", "Artist", "Title", "BPM", "Position", "Length"}}
	for layer := uint8(1); layer <= 4; layer++ {
		metrics, err := c.LayerMetrics(ctx, layer)
		if err != nil {
			log.Debug().Err(err).Uint8("layer", layer).Msg("metrics request failed")
			continue
		}
		info, err := c.TrackInfo(ctx, layer)
		if err != nil {
			log.Debug().Err(err).Uint8("layer", layer).Msg("track info request failed")
			continue
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", layer),
			info.TrackArtist,
			info.TrackTitle,
			fmt.Sprintf("%.2f", float64(metrics.BPM)/100),
			formatMillis(metrics.CurrentPosition),
			formatMillis(metrics.TrackLength),
		})
	}
	if len(rows) == 1 {
		pterm.Println(pterm.Gray("no layers answered"))
		return
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func formatMillis(ms uint32) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%02d:%02d.%03d", int(d.Minutes()), int(d.Seconds())%60, int(d.Milliseconds())%1000)
}

func eventName(t client.EventType) string {
	switch t {
	case client.EventBroadcast:
		return "broadcast"
	case client.EventUnicast:
		return "unicast-packet"
	case client.EventPeerAdded:
		return "peer-added"
	case client.EventPeerRemoved:
		return "peer-removed"
	default:
		return "unknown"
	}
}
