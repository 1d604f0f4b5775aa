package approval

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// policyFile is the YAML layout of a policy file. Rules, when present, replace the
// built-in rules; thresholds then override rule thresholds by name.
//
//	rules:
//	  - name: finance_large_amount
//	    module: finance
//	    actions: [create_invoice, post_payment, finance_write]
//	    fields: [total_amount, amount]
//	    threshold: "10000"
//	    condition: amount >= threshold
//	    reason: Finance action '{action}' over threshold requires approval.
//	thresholds:
//	  inventory_large_po: "15000"
type policyFile struct {
	Rules      []ruleSpec        `yaml:"rules"`
	Thresholds map[string]string `yaml:"thresholds"`
}

type ruleSpec struct {
	Name      string   `yaml:"name"`
	Module    string   `yaml:"module"`
	Actions   []string `yaml:"actions"`
	Fields    []string `yaml:"fields"`
	Threshold string   `yaml:"threshold"`
	Condition string   `yaml:"condition"`
	Reason    string   `yaml:"reason"`
}

// ParsePolicy builds a policy from YAML.
func ParsePolicy(data []byte) (*Policy, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse policy file")
	}

	rules := DefaultRules()
	if len(file.Rules) > 0 {
		rules = make([]Rule, 0, len(file.Rules))
		for _, entry := range file.Rules {
			threshold, err := decimal.NewFromString(entry.Threshold)
			if err != nil {
				return nil, errors.Wrapf(err, "rule %q has an invalid threshold", entry.Name)
			}
			rules = append(rules, Rule{
				Name:      entry.Name,
				Module:    entry.Module,
				Actions:   entry.Actions,
				Fields:    entry.Fields,
				Threshold: threshold,
				Condition: entry.Condition,
				Reason:    entry.Reason,
			})
		}
	}

	for name, raw := range file.Thresholds {
		threshold, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "threshold for %q is invalid", name)
		}
		found := false
		for i := range rules {
			if rules[i].Name == name {
				rules[i].Threshold = threshold
				found = true
			}
		}
		if !found {
			return nil, errors.Errorf("threshold override for unknown rule %q", name)
		}
	}

	return NewPolicy(rules)
}

// LoadPolicyFile reads and compiles the policy at path.
func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read policy file %s", path)
	}
	return ParsePolicy(data)
}

// PolicyWatcher reloads a policy file when it changes on disk.
// A file that fails to parse is logged and the previous policy stays in effect.
type PolicyWatcher struct {
	mu       sync.Mutex
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*Policy)
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewPolicyWatcher creates a watcher for path. onChange receives every successfully reloaded policy.
func NewPolicyWatcher(path string, onChange func(*Policy)) (*PolicyWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve policy path")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	return &PolicyWatcher{
		path:     absPath,
		watcher:  watcher,
		onChange: onChange,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches the directory of the policy file, so editors that replace the file are seen too.
func (w *PolicyWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", filepath.Dir(w.path))
	}
	w.running = true
	go w.run(ctx)
	slog.Info("watching approval policy file", slog.String("path", w.path))
	return nil
}

// Stop ends the watch loop and releases the watcher. It is safe to call more than once.
func (w *PolicyWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		slog.Warn("failed to close policy watcher", slog.String("error", err.Error()))
	}
}

func (w *PolicyWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			reload = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("policy watcher error", slog.String("error", err.Error()))
		case <-reload:
			reload = nil
			w.reload()
		}
	}
}

func (w *PolicyWatcher) reload() {
	policy, err := LoadPolicyFile(w.path)
	if err != nil {
		slog.Warn("keeping previous approval policy", slog.String("path", w.path), slog.String("error", err.Error()))
		return
	}
	w.onChange(policy)
	slog.Info("reloaded approval policy", slog.String("path", w.path), slog.Int("rules", len(policy.rules)))
}
