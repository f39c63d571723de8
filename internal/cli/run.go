// Package cli wires the import, match, and write steps into one pipeline and
// renders the run summary for the terminal.
package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/liuming-dev/ledgerlink/internal/adapters/rates"
	"github.com/liuming-dev/ledgerlink/internal/domain/categorize"
	"github.com/liuming-dev/ledgerlink/internal/domain/matching"
	"github.com/liuming-dev/ledgerlink/internal/domain/model"
	"github.com/liuming-dev/ledgerlink/internal/importers"
	"github.com/liuming-dev/ledgerlink/internal/infrastructure/config"
	"github.com/liuming-dev/ledgerlink/internal/infrastructure/storage"
	"github.com/liuming-dev/ledgerlink/internal/ledger"
)

// Pipeline runs import → match → write over a set of export files.
type Pipeline struct {
	Config *config.Config
	Logger *slog.Logger
	Store  *storage.Store // optional; nil disables run history
	DryRun bool
}

// RunSummary is what a pipeline run reports back to the terminal.
type RunSummary struct {
	FilesImported int
	FilesSkipped  int
	Reimported    []string
	Records       int
	MatchedPairs  int
	Singletons    int
	Ambiguities   []matching.Ambiguity
	Rejected      []matching.RecordError
	OutputPath    string
	DryRun        bool
}

// Run imports every recognized file under the given paths, matches the
// records, and writes the ledger output unless running dry.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*RunSummary, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := p.buildRegistry()
	files, err := expandPaths(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files found")
	}

	summary := &RunSummary{OutputPath: p.Config.Ledger.OutputPath, DryRun: p.DryRun}

	var records []model.Transaction
	importLog := logger.With("system", "import")
	for _, file := range files {
		imp, ok := importers.Identify(registry, file)
		if !ok {
			importLog.Warn("no importer recognizes file, skipping", "file", filepath.Base(file))
			summary.FilesSkipped++
			continue
		}

		txs, err := imp.Extract(file)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", filepath.Base(file), err)
		}

		importLog.Info("imported file",
			"file", filepath.Base(file),
			"platform", string(imp.Platform()),
			"records", len(txs))
		summary.FilesImported++
		records = append(records, txs...)

		if p.Store != nil {
			if err := p.recordImport(file, imp, len(txs), summary); err != nil {
				importLog.Warn("failed to record file import", "error", err)
			}
		}
	}
	summary.Records = len(records)

	lookup, err := p.buildRates(ctx, logger)
	if err != nil {
		return nil, err
	}
	engineCfg, err := engineConfig(p.Config, lookup)
	if err != nil {
		return nil, err
	}
	engine, err := matching.New(engineCfg, logger.With("system", "match"))
	if err != nil {
		return nil, err
	}

	result := engine.Run(records)
	summary.MatchedPairs = result.MatchedPairs()
	summary.Singletons = result.Singletons()
	summary.Ambiguities = result.Ambiguities
	summary.Rejected = result.Rejected

	if !p.DryRun {
		writer := ledger.NewWriter(categorize.New(nil, nil))
		if err := writer.WriteGroups(result.Groups, p.Config.Ledger.OutputPath); err != nil {
			return nil, err
		}
		logger.With("system", "ledger").Info("wrote ledger output",
			"path", p.Config.Ledger.OutputPath,
			"entries", len(result.Groups))
	}

	if p.Store != nil {
		if err := p.saveRun(result); err != nil {
			logger.Warn("failed to save run history", "error", err)
		}
	}

	return summary, nil
}

func (p *Pipeline) buildRegistry() []importers.Importer {
	imp := p.Config.Importers
	return []importers.Importer{
		importers.NewAlipay(imp.Alipay.Account, imp.Alipay.Currency),
		importers.NewWechat(imp.Wechat.Account, imp.Wechat.Currency),
		importers.NewWechatHK(imp.WechatHK.Account, imp.WechatHK.Currency),
		importers.NewCMBCredit(imp.CMBCredit.Account, imp.CMBCredit.Currency, imp.CMBCredit.CardSuffix),
		importers.NewCMBDebit(imp.CMBDebit.Account, imp.CMBDebit.Currency),
		importers.NewJD(imp.JD.Account, imp.JD.Currency, imp.JD.OrdersFile),
		importers.NewAldi(imp.Aldi.Account, imp.Aldi.Currency),
		importers.NewCostco(imp.Costco.Account, imp.Costco.Currency),
	}
}

// buildRates merges the static config table with an optional HTTP source.
// Static pairs win over fetched ones.
func (p *Pipeline) buildRates(ctx context.Context, logger *slog.Logger) (matching.RateLookup, error) {
	static, err := rates.NewStatic(p.Config.Rates.Static)
	if err != nil {
		return nil, err
	}
	if p.Config.Rates.URL == "" {
		return static.Lookup, nil
	}

	fetched, err := rates.NewHTTPSource(p.Config.Rates.URL, logger.With("system", "rates")).Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("rate source: %w", err)
	}
	return func(from, to string) (decimal.Decimal, bool) {
		if rate, ok := static.Lookup(from, to); ok {
			return rate, ok
		}
		return fetched.Lookup(from, to)
	}, nil
}

func (p *Pipeline) recordImport(file string, imp importers.Importer, count int, summary *RunSummary) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	seen, err := p.Store.WasImported(hash)
	if err != nil {
		return err
	}
	if seen {
		summary.Reimported = append(summary.Reimported, filepath.Base(file))
	}
	return p.Store.RecordFileImport(hash, filepath.Base(file), string(imp.Platform()), count)
}

func (p *Pipeline) saveRun(result matching.Result) error {
	runID, err := p.Store.StartRun()
	if err != nil {
		return err
	}

	var links []storage.MatchLink
	for _, group := range result.Groups {
		for _, link := range group.Links {
			links = append(links, storage.MatchLink{
				CanonicalID: group.Canonical.ID,
				LinkedID:    link.Record.ID,
				Phase:       string(link.Phase),
				Reason:      link.Reason,
			})
		}
	}
	if err := p.Store.SaveLinks(runID, links); err != nil {
		return err
	}
	return p.Store.CompleteRun(runID,
		result.MatchedPairs(), result.Singletons(),
		len(result.Ambiguities), len(result.Rejected))
}

// engineConfig translates file configuration into the engine's config object.
func engineConfig(cfg *config.Config, lookup matching.RateLookup) (matching.Config, error) {
	m := cfg.Matching

	epsilon, err := decimal.NewFromString(m.AmountEpsilon)
	if err != nil {
		return matching.Config{}, fmt.Errorf("matching amount_epsilon %q: %w", m.AmountEpsilon, err)
	}

	rules := make([]matching.AdjacencyRule, len(m.AdjacencyRules))
	for i, rule := range m.AdjacencyRules {
		rules[i] = matching.AdjacencyRule{
			Name:          rule.Name,
			Platform:      model.Platform(rule.Platform),
			MethodPattern: rule.MethodPattern,
			SettlesVia:    model.Platform(rule.SettlesVia),
		}
	}

	priority := make([]model.Platform, len(m.PlatformPriority))
	for i, platform := range m.PlatformPriority {
		priority[i] = model.Platform(platform)
	}

	// Nil knobs mean the key was absent everywhere; an explicit zero is a
	// valid setting and passes through unchanged.
	engineCfg := matching.DefaultConfig()
	if m.DateToleranceDays != nil {
		engineCfg.DateToleranceDays = *m.DateToleranceDays
	}
	if m.FuzzyThreshold != nil {
		engineCfg.FuzzyThreshold = *m.FuzzyThreshold
	}
	engineCfg.AmountEpsilon = epsilon
	engineCfg.AdjacencyRules = rules
	engineCfg.PlatformPriority = priority
	engineCfg.Rates = lookup
	return engineCfg, nil
}

// expandPaths resolves files and directories into a sorted file list.
// Directories are read one level deep; hidden files are skipped.
func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || entry.Name()[0] == '.' {
				continue
			}
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
