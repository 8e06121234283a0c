package paginate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"slidefit/config"
	"slidefit/generate"
	"slidefit/pager"
	"slidefit/preview"
	"slidefit/state"
)

// NewClient prepares generation client. Returned cache (may be nil) must be
// closed by the caller.
func NewClient(cfg *config.GenerationConfig, log *zap.Logger) (*generate.Client, *generate.Cache, error) {
	var cache *generate.Cache
	if len(cfg.Cache) > 0 {
		var err error
		if cache, err = generate.OpenCache(cfg.Cache); err != nil {
			return nil, nil, err
		}
	}
	client := generate.NewClient(generate.Options{
		Endpoint: cfg.Endpoint,
		APIKey:   string(cfg.APIKey),
		Timeout:  cfg.Timeout,
		Cache:    cache,
	}, log)
	return client, cache, nil
}

// Run is paginate subcommand action.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("paginate")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	dst := cmd.Args().Get(1)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	var forced encoding.Encoding
	if cp := cmd.String("charset"); len(cp) > 0 {
		if forced, err = Encoding(cp); err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			forced = nil
		}
	}

	if err := env.PrepareFonts(); err != nil {
		return err
	}
	engine, err := NewEngine(env.Cfg, env.Fonts, log)
	if err != nil {
		return fmt.Errorf("unable to prepare pagination: %w", err)
	}
	opts := Options{Title: cmd.String("title"), Subtitle: cmd.String("subtitle")}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	if err := env.Rpt.StoreCopy("source/"+filepath.Base(src), src); err != nil {
		log.Warn("Unable to store source in the report", zap.Error(err))
	}

	var records []generate.Record
	if cmd.Bool("from-json") {
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("unable to read source: %w", err)
		}
		if records, err = generate.DecodeRecords(data); err != nil {
			return fmt.Errorf("unable to decode generated records: %w", err)
		}
	} else if records, err = fetchRecords(ctx, env, src, forced, opts, log); err != nil {
		return err
	}

	res, err := engine.Paginate(records, opts)
	if err != nil {
		return err
	}
	if res.Stats.Forced > 0 {
		log.Warn("Some content does not fit on a page", zap.Int("pages", res.Stats.Forced))
	}

	data, err := Marshal(res.Slides, env.Cfg.Output.Indent)
	if err != nil {
		return fmt.Errorf("unable to encode slides: %w", err)
	}
	env.Rpt.StoreData("output/slides.json", data)
	if env.Rpt != nil {
		storePreviews(engine, res.Pages, env.Rpt, log)
	}

	out, err := buildOutputPath(dst, env.Cfg.Output.NameTemplate, nameValues(res.Slides, src))
	if err != nil {
		return fmt.Errorf("unable to prepare output name: %w", err)
	}
	if len(out) == 0 {
		if _, err := os.Stdout.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("unable to write output: %w", err)
		}
		return nil
	}
	if err := writeOutput(out, data, cmd.Bool("overwrite")); err != nil {
		return err
	}
	log.Info("Slides written", zap.String("file", out), zap.Int("slides", len(res.Slides)), zap.Int("pages", len(res.Pages)))
	return nil
}

// fetchRecords sends source text to the generation service.
func fetchRecords(ctx context.Context, env *state.LocalEnv, src string, forced encoding.Encoding, opts Options, log *zap.Logger) (records []generate.Record, err error) {
	text, err := ReadSource(src, forced, log)
	if err != nil {
		return nil, err
	}
	client, cache, err := NewClient(&env.Cfg.Generation, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if er := cache.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close response cache: %w", er))
		}
	}()

	resp, err := client.Generate(ctx, generate.Request{Text: text, Title: opts.Title, Subtitle: opts.Subtitle})
	if err != nil {
		return nil, fmt.Errorf("unable to generate slides: %w", err)
	}
	if resp.Cached {
		log.Info("Using cached generation response")
	}
	env.Rpt.StoreData("generation/response.json", resp.Body)
	return resp.Records, nil
}

// storePreviews puts page images and their overview into debug report.
// Failures only affect the report.
func storePreviews(engine *Engine, pages []pager.Page, rpt *config.Report, log *zap.Logger) {
	imgs, err := engine.Previews(pages)
	if err != nil {
		log.Warn("Unable to render page previews", zap.Error(err))
		return
	}
	for i, img := range imgs {
		data, err := preview.EncodePNG(img)
		if err != nil {
			log.Warn("Unable to encode page preview", zap.Int("page", i+1), zap.Error(err))
			continue
		}
		rpt.StoreData(fmt.Sprintf("preview/page-%d.png", i+1), data)
	}
	if len(imgs) > 0 {
		if data, err := preview.EncodePNG(preview.ContactSheet(imgs, 4, 200)); err == nil {
			rpt.StoreData("preview/overview.png", data)
		}
	}
}
