package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mixtools/tcnet/client"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	peersWait time.Duration

	peersCmd = &cobra.Command{
		Use:   "peers",
		Short: "Discover and list the nodes on the segment",
		Args:  cobra.NoArgs,
		RunE:  runPeers,
	}
)

func init() {
	peersCmd.Flags().DurationVar(&peersWait, "wait", 3*time.Second, "how long to listen for announcements")
}

func runPeers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := client.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), peersWait)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Disconnect()
	<-ctx.Done()

	peers := c.Peers()
	if len(peers) == 0 {
		pterm.Println(pterm.Gray("no peers found"))
		return nil
	}

	rows := pterm.TableData{{"Node", "Name", "Type", "Vendor", "App", "Endpoint", "Uptime"}}
	for _, p := range peers {
		rows = append(rows, []string{
			fmt.Sprintf("%d", p.NodeID),
			p.NodeName,
			nodeTypeName(p.NodeType),
			p.VendorName,
			p.AppName,
			p.UnicastAddr().String(),
			p.Uptime.String(),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func nodeTypeName(t uint8) string {
	switch t {
	case 1:
		return "auto"
	case 2:
		return "master"
	case 4:
		return "slave"
	case 8:
		return "repeater"
	default:
		return fmt.Sprintf("%d", t)
	}
}
