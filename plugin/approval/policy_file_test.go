package approval

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestParsePolicy(t *testing.T) {
	t.Run("threshold override", func(t *testing.T) {
		policy, err := ParsePolicy([]byte("thresholds:\n  finance_large_amount: \"5000\"\n"))
		require.NoError(t, err)

		needs, _ := policy.RequiresApproval("finance", "post_payment", map[string]any{"amount": 5000})
		assert.True(t, needs)
		needs, _ = policy.RequiresApproval("inventory", "create_po", map[string]any{"total": 19999})
		assert.False(t, needs)
	})

	t.Run("rules replace defaults", func(t *testing.T) {
		policy, err := ParsePolicy([]byte(`
rules:
  - name: any_sales_write
    module: sales
    actions: [sales_write]
    threshold: "0"
    reason: Sales writes require approval.
`))
		require.NoError(t, err)
		require.Len(t, policy.Rules(), 1)

		needs, reason := policy.RequiresApproval("sales", "sales_write", nil)
		assert.True(t, needs)
		assert.Equal(t, "Sales writes require approval.", reason)

		needs, _ = policy.RequiresApproval("finance", "post_payment", map[string]any{"amount": 50000})
		assert.False(t, needs)
	})

	t.Run("errors", func(t *testing.T) {
		for name, doc := range map[string]string{
			"malformed yaml":     "rules: [",
			"bad threshold":      "thresholds:\n  finance_large_amount: \"lots\"\n",
			"unknown rule":       "thresholds:\n  nope: \"1\"\n",
			"bad rule":           "rules:\n  - name: x\n    module: finance\n    actions: [a]\n    threshold: \"1\"\n    condition: \"amount >\"\n",
			"bad rule threshold": "rules:\n  - name: x\n    module: finance\n    actions: [a]\n    threshold: \"\"\n",
		} {
			_, err := ParsePolicy([]byte(doc))
			assert.Error(t, err, name)
		}
	})
}

func TestLoadPolicyFile(t *testing.T) {
	_, err := LoadPolicyFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  inventory_large_po: \"100\"\n"), 0o600))
	policy, err := LoadPolicyFile(path)
	require.NoError(t, err)
	needs, _ := policy.RequiresApproval("inventory", "create_po", map[string]any{"total": 100})
	assert.True(t, needs)
}

func TestPolicyWatcher_Reload(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  finance_large_amount: \"10000\"\n"), 0o600))

	gate := NewGate(nil, nil, nil)
	watcher, err := NewPolicyWatcher(path, gate.SetPolicy)
	require.NoError(t, err)
	watcher.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	require.NoError(t, watcher.Start(ctx))

	// A broken file keeps the previous policy.
	require.NoError(t, os.WriteFile(path, []byte("thresholds: ["), 0o600))
	time.Sleep(100 * time.Millisecond)
	needs, _ := gate.RequiresApproval("finance", "post_payment", map[string]any{"amount": 2000})
	assert.False(t, needs)

	require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  finance_large_amount: \"1000\"\n"), 0o600))
	assert.Eventually(t, func() bool {
		needs, _ := gate.RequiresApproval("finance", "post_payment", map[string]any{"amount": 2000})
		return needs
	}, 3*time.Second, 20*time.Millisecond)

	watcher.Stop()
	watcher.Stop()
}

func TestPolicyWatcher_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	watcher, err := NewPolicyWatcher(filepath.Join(t.TempDir(), "policy.yaml"), func(*Policy) {})
	require.NoError(t, err)
	watcher.Stop()
}
