package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omochice/tcp-registry/internal/client"
	"github.com/omochice/tcp-registry/pkg/protocol"
)

func main() {
	// Parse command-line flags
	gateway := flag.String("gateway", "ws://localhost:7070", "Gateway URL (e.g., ws://localhost:7070)")
	op := flag.String("op", "", "Operation: connect, connect_with_bind, bind, unbind, disconnect, send")
	id := flag.String("id", "", "Connection ID")
	endpoint := flag.String("endpoint", "", "Remote endpoint for connect, listen endpoint for bind (e.g., 127.0.0.1:9000)")
	local := flag.String("local", "", "Local address for connect_with_bind (e.g., 0.0.0.0:5000)")
	addr := flag.String("addr", "", "Peer address for send on a bound ID")
	data := flag.String("data", "", "Payload for send")
	tail := flag.Bool("tail", false, "Print registry events until interrupted")
	timeout := flag.Duration("timeout", 10*time.Second, "Timeout for the operation")
	flag.Parse()

	if *op == "" && !*tail {
		log.Fatal("Nothing to do. Use -op and/or -tail")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, *timeout)
	c, err := client.Dial(dialCtx, *gateway)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to gateway: %v", err)
	}
	defer c.Close()

	if *op != "" {
		parsed, err := protocol.ParseOp(*op)
		if err != nil {
			log.Fatal(err)
		}
		cmd := protocol.Command{
			Op:        parsed,
			ID:        *id,
			Endpoint:  *endpoint,
			LocalAddr: *local,
			PeerAddr:  *addr,
			Data:      []byte(*data),
		}

		opCtx, cancel := context.WithTimeout(ctx, *timeout)
		err = c.Do(opCtx, cmd)
		cancel()
		if err != nil {
			c.Close()
			log.Fatalf("%s %s failed: %v", parsed, *id, err)
		}
		fmt.Printf("%s %s: OK\n", parsed, *id)
	}

	if !*tail {
		return
	}

	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				log.Println("Gateway closed the connection")
				return
			}
			if ev.Type == protocol.EventMessage {
				fmt.Printf("%s: %q\n", ev, ev.Data)
				continue
			}
			fmt.Println(ev)
		case <-ctx.Done():
			return
		}
	}
}
