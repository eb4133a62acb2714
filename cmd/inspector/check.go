package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ufw-inspector/internal/engine"
	"ufw-inspector/internal/model"
	"ufw-inspector/internal/parser"
	"ufw-inspector/internal/utils"
)

func newCheckCmd() *cobra.Command {
	var (
		src, dst, proto, direction, iface string
		port                              uint16
		workers                           int
		maxHosts                          uint64
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate traffic against the live rule set",
		Long: `check decides whether traffic to --port is allowed. --src and --dst take
	an address or a prefix; a prefix is decided as a block when the rules allow,
	and expanded address by address otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srcBlock, err := parseBlock(src)
			if err != nil {
				return fmt.Errorf("--src: %w", err)
			}
			dstBlock, err := parseBlock(dst)
			if err != nil {
				return fmt.Errorf("--dst: %w", err)
			}
			protocol, err := parser.ParseProtocol(strings.ToLower(proto))
			if err != nil {
				return fmt.Errorf("--proto: %w", err)
			}
			dir, ok := model.ParseRuleDirection(direction)
			if !ok {
				return fmt.Errorf("--direction: %w: %q", model.ErrWrongRuleDirection, direction)
			}

			st, err := inspect(cmd)
			if err != nil {
				return err
			}
			if !st.Rules.OK() {
				return st.Rules.Err
			}
			var defaults []model.Default
			if st.Verbose.OK() && st.Verbose.Value.Defaults.OK() {
				defaults = model.Values(st.Verbose.Value.Defaults.Value)
			}
			evaluator := engine.NewEvaluator(model.Values(st.Rules.Value), defaults)
			out := cmd.OutOrStdout()

			if isHost(srcBlock) && isHost(dstBlock) {
				d := evaluator.Evaluate(engine.Packet{
					Src:       srcBlock.Addr(),
					Dst:       dstBlock.Addr(),
					Port:      port,
					Protocol:  protocol,
					Direction: dir,
					Interface: iface,
				})
				printDecision(out, d)
				return nil
			}

			status, entry, reason := evaluator.Precheck(srcBlock, dstBlock, port, protocol, dir, iface)
			slog.Debug("Precheck finished", "status", status, "reason", reason)
			if status != engine.StatusExpand {
				verdict := "DENY"
				if status == engine.StatusAllowAll {
					verdict = "ALLOW"
				}
				printDecision(out, engine.Decision{Verdict: verdict, Matched: entry, Reason: reason})
				return nil
			}

			srcSize, dstSize := utils.PrefixSize(srcBlock), utils.PrefixSize(dstBlock)
			if srcSize > maxHosts || dstSize > maxHosts || srcSize > maxHosts/dstSize {
				fmt.Fprintf(out, "PARTIAL (%s): %d x %d addresses exceed --max-hosts %d\n", reason, srcSize, dstSize, maxHosts)
				return nil
			}
			allowed, denied := expand(evaluator, srcBlock, dstBlock, engine.Packet{
				Port:      port,
				Protocol:  protocol,
				Direction: dir,
				Interface: iface,
			}, workers)
			fmt.Fprintf(out, "PARTIAL: %d allowed, %d denied\n", allowed, denied)
			return nil
		},
	}

	cmd.Flags().StringVar(&src, "src", "", "Source address or prefix (required)")
	cmd.Flags().StringVar(&dst, "dst", "", "Destination address or prefix (required)")
	cmd.Flags().Uint16Var(&port, "port", 0, "Destination port (required)")
	cmd.Flags().StringVar(&proto, "proto", "tcp", "Protocol: tcp, udp or empty for any")
	cmd.Flags().StringVar(&direction, "direction", "in", "Direction: in, out or fwd")
	cmd.Flags().StringVar(&iface, "iface", "", "Interface the traffic arrives on")
	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Number of concurrent workers when expanding")
	cmd.Flags().Uint64Var(&maxHosts, "max-hosts", 65536, "Maximum number of address pairs to expand")

	cmd.MarkFlagRequired("src")
	cmd.MarkFlagRequired("dst")
	cmd.MarkFlagRequired("port")
	return cmd
}

func parseBlock(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("%w: %s", model.ErrInvalidAddress, err.Error())
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("%w: %s", model.ErrInvalidAddress, err.Error())
	}
	return utils.HostPrefix(addr), nil
}

func isHost(p netip.Prefix) bool {
	return p.Bits() == p.Addr().BitLen()
}

func printDecision(w io.Writer, d engine.Decision) {
	if d.Matched != nil {
		fmt.Fprintf(w, "%s by rule %d (%s)\n", d.Verdict, d.Matched.Number, d.Reason)
		return
	}
	fmt.Fprintf(w, "%s by default policy (%s)\n", d.Verdict, d.Reason)
}

// expand evaluates every src/dst address pair. The producer feeds packets to
// the workers; the caller counts the decisions as they come back.
func expand(evaluator *engine.Evaluator, src, dst netip.Prefix, template engine.Packet, workers int) (allowed, denied uint64) {
	if workers < 1 {
		workers = 1
	}
	packets := make(chan engine.Packet, workers*100)
	decisions := make(chan engine.Decision, workers*100)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go worker(&wg, i+1, evaluator, packets, decisions)
	}

	go func() {
		count := 0
		for s := src.Addr(); src.Contains(s); s = s.Next() {
			for d := dst.Addr(); dst.Contains(d); d = d.Next() {
				p := template
				p.Src, p.Dst = s, d
				packets <- p
				count++
			}
		}
		close(packets)
		slog.Debug("Packet producer finished", "packets", count)
	}()

	go func() {
		wg.Wait()
		close(decisions)
	}()

	for d := range decisions {
		if d.Allowed() {
			allowed++
		} else {
			denied++
		}
	}
	return allowed, denied
}

func worker(wg *sync.WaitGroup, id int, evaluator *engine.Evaluator, packets <-chan engine.Packet, decisions chan<- engine.Decision) {
	defer wg.Done()
	slog.Debug("Worker started", "id", id)
	for p := range packets {
		decisions <- evaluator.Evaluate(p)
	}
	slog.Debug("Worker finished", "id", id)
}
