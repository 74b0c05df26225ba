// Command cnlsub fetches a generalized object, or follows a
// generalized-object stream, by name from a running NFD-compatible
// forwarder, using the namespace tree instead of a bare object.Client.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/named-data/cnl-go/handler/gobject"
	"github.com/named-data/cnl-go/handler/gostream"
	"github.com/named-data/cnl-go/namespace"
	"github.com/spf13/cobra"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/engine"
	"github.com/named-data/ndnd/std/log"

	"github.com/named-data/cnl-go/engineface"
)

type subscriber struct {
	stream       bool
	mustBeFresh  bool
	pipelineSize int
}

func main() {
	sub := &subscriber{}

	cmd := &cobra.Command{
		Use:   "cnlsub NAME",
		Short: "Fetch a generalized object, or follow a stream, under NAME",
		Long: `Fetch a generalized object under NAME and write its content to
standard output.

With --stream, NAME is treated as the root of a generalized-object
stream: cnlsub follows its "_latest" pointer indefinitely, writing each
newly published object's content to standard output as it arrives.`,
		Args:    cobra.ExactArgs(1),
		Example: "  cnlsub /my/example/data > data.bin",
		RunE:    sub.run,
	}
	cmd.Flags().BoolVar(&sub.stream, "stream", false, "follow a generalized-object stream instead of fetching once")
	cmd.Flags().BoolVar(&sub.mustBeFresh, "must-be-fresh", false, "require fresh Data from the producer")
	cmd.Flags().IntVar(&sub.pipelineSize, "pipeline", 4, "stream catch-up pipeline depth (0 = latest object only)")

	if err := cmd.Execute(); err != nil {
		log.Fatal("cnlsub failed", "err", err)
	}
}

func (sub *subscriber) run(cmd *cobra.Command, args []string) error {
	name, err := enc.NameFromStr(args[0])
	if err != nil {
		log.Fatal("invalid name", "name", args[0])
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

	if sub.stream {
		sub.runStream(root)
	} else {
		sub.runOnce(root)
	}
	return nil
}

func (sub *subscriber) runOnce(root *namespace.Node) {
	goh := gobject.New()
	if err := root.SetHandler(goh); err != nil {
		log.Fatal("unable to attach object handler", "err", err)
		return
	}

	done := make(chan struct{})
	goh.OnObject(func(obj namespace.Object) {
		if b, ok := obj.(namespace.Blob); ok {
			_, _ = os.Stdout.Write(b)
		}
		close(done)
	})
	if err := root.ObjectNeeded(sub.mustBeFresh); err != nil {
		log.Fatal("unable to fetch object", "err", err)
		return
	}

	select {
	case <-done:
	case <-time.After(root.MaxInterestLifetime() * 4):
		log.Fatal("timed out waiting for object", "name", root.Name())
	}
}

func (sub *subscriber) runStream(root *namespace.Node) {
	gs := gostream.New()
	gs.PipelineSize = sub.pipelineSize
	if err := root.SetHandler(gs); err != nil {
		log.Fatal("unable to attach stream handler", "err", err)
		return
	}
	gs.OnObject(func(seq uint64, obj namespace.Object) {
		if b, ok := obj.(namespace.Blob); ok {
			_, _ = os.Stdout.Write(b)
		}
		log.Info("received object", "seq", seq)
	})
	if err := gs.StartFetching(sub.mustBeFresh); err != nil {
		log.Fatal("unable to start stream", "err", err)
		return
	}

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	received := <-sigchan
	gs.StopFetching()
	log.Info("received signal, exiting", "signal", received)
}
