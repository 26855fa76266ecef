// vitalcore-server is the process entrypoint: load config, build the
// ServiceContext, register handlers, serve.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"
	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/medhealth/vitalcore/internal/apperr"
	"github.com/medhealth/vitalcore/internal/config"
	"github.com/medhealth/vitalcore/internal/handler"
	"github.com/medhealth/vitalcore/internal/svc"
)

var configFile = flag.String("f", "etc/vitalcore.toml", "the config file")

func main() {
	flag.Parse()

	c, err := config.Load(*configFile)
	if err != nil {
		logx.Errorf("load config: %v", err)
		os.Exit(1)
	}

	httpx.SetErrorHandler(apperr.Handler)

	ctx, err := svc.NewServiceContext(c)
	if err != nil {
		logx.Errorf("build service context: %v", err)
		os.Exit(1)
	}
	defer ctx.Close()

	corsOpt := rest.WithCors(c.CORS.AllowedOrigins...)
	server := rest.MustNewServer(c.RestConf, corsOpt)
	defer server.Stop()

	handler.RegisterHandlers(server, ctx)

	stopSweeper := startRevocationSweeper(ctx, c)
	defer stopSweeper()

	fmt.Printf("Starting vitalcore-server at %s:%d...\n", c.Host, c.Port)
	server.Start()
}

// startRevocationSweeper deletes expired revocation rows on a fixed
// interval until stopped.
func startRevocationSweeper(ctx *svc.ServiceContext, c config.Config) func() {
	interval := time.Duration(c.Audit.RevocationSweepS) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				n, err := ctx.Store.SweepExpiredRevocations(context.Background())
				if err != nil {
					logx.Errorf("revocation sweep failed: %v", err)
					continue
				}
				if n > 0 {
					logx.Infof("revocation sweep removed %d expired rows", n)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}
