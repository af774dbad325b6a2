package report

import (
	"sort"
	"sync"

	"gapnode/app"

	"github.com/tendermint/tendermint/libs/log"
)

var _ app.Reporter = (*Reporter)(nil)

// Reporter sends failures to the error log, the context keys in sorted order.
type Reporter struct {
	mu      sync.Mutex
	logger  log.Logger
	reports int
}

func New(logger log.Logger) *Reporter {
	return &Reporter{logger: logger.With("module", "report")}
}

func (reporter *Reporter) Report(message string, err error, context map[string]interface{}) {
	keys := make([]string, 0, len(context))
	for key := range context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	keyvals := make([]interface{}, 0, 2*len(keys)+2)
	for _, key := range keys {
		keyvals = append(keyvals, key, context[key])
	}
	keyvals = append(keyvals, "err", err)

	reporter.mu.Lock()
	reporter.reports++
	reporter.mu.Unlock()
	reporter.logger.Error(message, keyvals...)
}

// Count is the number of reports so far.
func (reporter *Reporter) Count() int {
	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	return reporter.reports
}
