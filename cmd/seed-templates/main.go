package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/class-control-api/internal/repository"
	"github.com/noah-isme/class-control-api/internal/service"
	"github.com/noah-isme/class-control-api/pkg/config"
	"github.com/noah-isme/class-control-api/pkg/database"
	"github.com/noah-isme/class-control-api/pkg/docstore"
	"github.com/noah-isme/class-control-api/pkg/logger"
	"github.com/noah-isme/class-control-api/pkg/whatsapp"
)

type templateStore interface {
	Template(ctx context.Context, id string) (map[string]interface{}, error)
	PutTemplate(ctx context.Context, id string, data map[string]interface{}) error
}

type seedResult struct {
	Written []string
	Skipped []string
}

func main() {
	var (
		overwrite bool
		dryRun    bool
	)
	flag.BoolVar(&overwrite, "overwrite", false, "Replace templates that already exist")
	flag.BoolVar(&dryRun, "dry-run", false, "Print the templates without writing them")
	flag.Parse()

	if dryRun {
		for i := 1; i <= service.LectureTemplateCount; i++ {
			id := fmt.Sprintf("%02d", i)
			fmt.Printf("%s\t%v\n", id, templateFor(id)["nome"])
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	store, closeStore, err := database.OpenStore(ctx, cfg, nil, logr)
	if err != nil {
		logr.Fatal("open store", zap.Error(err))
	}
	defer closeStore()

	result, err := seed(ctx, repository.NewLectureRepository(store), overwrite)
	if err != nil {
		logr.Fatal("seed lecture templates", zap.Error(err))
	}
	logr.Info("lecture templates seeded",
		zap.Strings("written", result.Written),
		zap.Strings("skipped", result.Skipped),
	)
}

func seed(ctx context.Context, repo templateStore, overwrite bool) (seedResult, error) {
	var result seedResult
	for i := 1; i <= service.LectureTemplateCount; i++ {
		id := fmt.Sprintf("%02d", i)
		if !overwrite {
			_, err := repo.Template(ctx, id)
			if err == nil {
				result.Skipped = append(result.Skipped, id)
				continue
			}
			if !errors.Is(err, docstore.ErrNotFound) {
				return result, err
			}
		}
		if err := repo.PutTemplate(ctx, id, templateFor(id)); err != nil {
			return result, err
		}
		result.Written = append(result.Written, id)
	}
	return result, nil
}

// templateFor builds the template document of a canonical lecture. The stored
// name drops the "Lição N:" prefix so it matches the summary tables.
func templateFor(id string) map[string]interface{} {
	name := "Palestra " + id
	if title, ok := whatsapp.LessonTitle(id); ok {
		name = title
		if _, rest, found := strings.Cut(title, ": "); found {
			name = rest
		}
	}
	return map[string]interface{}{
		"nome":            map[string]interface{}{"pt": name},
		"titulo":          "",
		"instrutor":       "",
		"data":            "",
		"totalFragmentos": 1,
	}
}
