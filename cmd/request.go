package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mixtools/tcnet/client"
	"github.com/mixtools/tcnet/protocol"
	"github.com/spf13/cobra"
)

var (
	requestLayer   uint8
	requestPayload string
	requestNode    uint16

	requestCmd = &cobra.Command{
		Use:   "request",
		Short: "Fetch one payload from a peer and print it as JSON",
		Args:  cobra.NoArgs,
		RunE:  runRequest,
	}
)

func init() {
	requestCmd.Flags().Uint8Var(&requestLayer, "layer", 1, "layer to query")
	requestCmd.Flags().StringVar(&requestPayload, "payload", "metrics", "payload: metrics, metadata, cue, mixer, waveform-small, waveform-big")
	requestCmd.Flags().Uint16Var(&requestNode, "node", 0, "target node id (0 = default peer)")
}

func payloadType(name string) (uint8, error) {
	switch name {
	case "metrics":
		return protocol.DataTypeMetrics, nil
	case "metadata":
		return protocol.DataTypeMetadata, nil
	case "cue":
		return protocol.DataTypeCue, nil
	case "mixer":
		return protocol.DataTypeMixer, nil
	case "waveform-small":
		return protocol.DataTypeSmallWaveform, nil
	case "waveform-big":
		return protocol.DataTypeBigWaveform, nil
	default:
		return 0, fmt.Errorf("unknown payload %q", name)
	}
}

func runRequest(cmd *cobra.Command, args []string) error {
	dataType, err := payloadType(requestPayload)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := client.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Disconnect()

	nodeID := requestNode
	if nodeID == 0 {
		peers := c.Peers()
		if len(peers) == 0 {
			return client.ErrNoPeer
		}
		nodeID = peers[0].NodeID
		for _, p := range peers {
			if p.IsMaster() {
				nodeID = p.NodeID
				break
			}
		}
	}

	pkt, err := c.RequestData(ctx, nodeID, dataType, requestLayer)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pkt)
}
