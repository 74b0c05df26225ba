// Command cnlpub publishes a generalized object, or a sequence-numbered
// generalized-object stream, under a name on a running NFD-compatible
// forwarder, using the namespace tree instead of a bare object.Client.
package main

import (
	"bufio"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/named-data/cnl-go/cnlsec"
	"github.com/named-data/cnl-go/handler/gobject"
	"github.com/named-data/cnl-go/handler/gostream"
	"github.com/named-data/cnl-go/namespace"
	"github.com/spf13/cobra"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/engine"
	"github.com/named-data/ndnd/std/log"
	"github.com/named-data/ndnd/std/security/signer"

	"github.com/named-data/cnl-go/engineface"
)

type publisher struct {
	stream    bool
	freshness time.Duration
}

func main() {
	pub := &publisher{}

	cmd := &cobra.Command{
		Use:   "cnlpub NAME",
		Short: "Publish a generalized object under NAME",
		Long: `Publish a generalized object under NAME.

Reads content from standard input. With --stream, the content is
published as sequence number 0 of a generalized-object stream rooted at
NAME, with NAME/_latest pointing at it, instead of publishing NAME
itself. Each invocation starts a new stream; it does not continue the
numbering of an earlier one.`,
		Args:    cobra.ExactArgs(1),
		Example: "  echo hello | cnlpub /my/example/data",
		RunE:    pub.run,
	}
	cmd.Flags().BoolVar(&pub.stream, "stream", false, "publish as sequence number 0 of a stream")
	cmd.Flags().DurationVar(&pub.freshness, "freshness", time.Second, "FreshnessPeriod for the _meta Data (for _latest with --stream)")

	if err := cmd.Execute(); err != nil {
		log.Fatal("cnlpub failed", "err", err)
	}
}

func (pub *publisher) run(cmd *cobra.Command, args []string) error {
	name, err := enc.NameFromStr(args[0])
	if err != nil {
		log.Fatal("invalid name", "name", args[0])
		return nil
	}

	payload, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		log.Fatal("failed to read stdin", "err", err)
		return nil
	}

	app := engine.NewBasicEngine(engine.NewDefaultFace())
	if err := app.Start(); err != nil {
		log.Fatal("unable to start engine", "err", err)
		return nil
	}
	defer app.Stop()

	face := engineface.New(app)

	root := namespace.NewRoot(name)
	root.SetFace(face)
	root.SetKeyChain(cnlsec.StaticSigner{S: signer.NewSha256Signer()})
	if err := root.RegisterPrefix(); err != nil {
		log.Fatal("unable to register prefix", "name", name, "err", err)
		return nil
	}

	if pub.stream {
		gs := gostream.New()
		if err := root.SetHandler(gs); err != nil {
			log.Fatal("unable to attach stream handler", "err", err)
			return nil
		}
		gs.LatestFreshness = pub.freshness
		seq, err := gs.AddObject(namespace.Blob(payload), payload)
		if err != nil {
			log.Fatal("unable to publish object", "err", err)
			return nil
		}
		log.Info("object published", "name", name, "seq", seq)
	} else {
		goh := gobject.New()
		if err := root.SetHandler(goh); err != nil {
			log.Fatal("unable to attach object handler", "err", err)
			return nil
		}
		if err := goh.Publish(namespace.Blob(payload), payload, pub.freshness); err != nil {
			log.Fatal("unable to publish object", "err", err)
			return nil
		}
		log.Info("object published", "name", name)
	}

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	received := <-sigchan
	log.Info("received signal, exiting", "signal", received)
	return nil
}
