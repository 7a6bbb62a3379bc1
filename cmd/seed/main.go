// Command seed fills the movie table by resolving a fixed list of titles
// through the regular cache-fill path.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"moviereview/internal/biz"
	"moviereview/internal/conf"
	"moviereview/internal/data"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/env"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/joho/godotenv"
)

var flagconf string

var titles = []string{
	"Over the Hedge",
	"Shrek",
	"The Incredibles",
	"Toy Story",
	"Inception",
	"My Neighbor Totoro",
	"suzume",
}

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()
	_ = godotenv.Load()

	logger := log.With(log.NewStdLogger(os.Stdout), "ts", log.DefaultTimestamp, "service.name", "moviereview-seed")
	l := log.NewHelper(logger)

	c := config.New(config.WithSource(env.NewSource(""), file.NewSource(flagconf)))
	defer c.Close()
	if err := c.Load(); err != nil {
		panic(err)
	}
	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	d, cleanup, err := data.NewData(bc.Data, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	uc := biz.NewMovieUseCase(data.NewMovieRepo(d, logger), data.NewOmdbClient(bc.Omdb, logger), logger)

	failed := 0
	for _, title := range titles {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		movies, err := uc.Resolve(ctx, title, nil)
		cancel()
		if err != nil {
			l.Errorf("seed %q: %v", title, err)
			failed++
			continue
		}
		l.Infof("seed %q: %s (%d stored)", title, movies[0].ID, len(movies))
	}

	if failed > 0 {
		l.Warnf("%d of %d titles could not be seeded", failed, len(titles))
		cleanup()
		os.Exit(1)
	}
}
