package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botrelay/internal/chat/handler/mocks"
	"botrelay/internal/common"
	"botrelay/internal/dbmysql"
	"botrelay/internal/relay"
	"botrelay/internal/user"
)

func TestRunClassify(t *testing.T) {
	classifier := relay.NewClassifier(nil)

	tests := []struct {
		name       string
		body       string
		attachment string
		want       string
	}{
		{"plain question", "what is the balance?", "", "deliver: \"what is the balance?\"\n"},
		{"mention only", "@Helper", "", "suppress (mention_only)\n"},
		{"report", "The expense was recorded successfully.", "", "suppress (recorded_statement)\n"},
		{"attachment filename stripped", "@Helper invoice.pdf", "invoice.pdf", "deliver: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, runClassify(&out, classifier, tt.body, tt.attachment))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestPrintRules(t *testing.T) {
	rules, err := relay.ParseRuleset([]byte(`
rules:
  - name: first
    pattern: '^a'
  - name: second
    pattern: '^b'
    enabled: false
`))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printRules(&out, rules))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"first", "on", "^a"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"second", "off", "^b"}, strings.Fields(lines[1]))
}

func TestRunCheck(t *testing.T) {
	var out bytes.Buffer
	err := runCheck(&out, []byte("rules:\n  - name: a\n    pattern: 'x'\n  - name: b\n    pattern: 'y'\n    enabled: false\n"))
	require.NoError(t, err)
	assert.Equal(t, "ok: 2 rules, 1 enabled\n", out.String())

	out.Reset()
	err = runCheck(&out, []byte("rules:\n  - name: bad\n    pattern: '('\n"))
	assert.ErrorContains(t, err, "invalid pattern catalogue")
	assert.Empty(t, out.String())
}

func TestRunBotCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	bots := mocks.NewMockBotService(ctrl)
	ctx := context.Background()
	req := user.RegisterBotRequest{Name: "Reporter", WebhookURL: "https://bots.example.com/hook"}

	bots.EXPECT().RegisterBot(ctx, req).Return(&dbmysql.User{ID: "bot-1", Name: "Reporter"}, "bot-1-secret", nil)

	var out bytes.Buffer
	require.NoError(t, runBotCreate(ctx, &out, bots, req))
	assert.Contains(t, out.String(), "bot Reporter (bot-1) created")
	assert.Contains(t, out.String(), "bot key: bot-1-secret")

	bots.EXPECT().RegisterBot(ctx, req).Return(nil, "", errors.New("bot name already exists"))
	assert.ErrorContains(t, runBotCreate(ctx, &out, bots, req), "already exists")
}

func TestRunToken(t *testing.T) {
	issuer := common.NewTokenIssuer("test-secret", time.Hour)

	var out bytes.Buffer
	require.NoError(t, runToken(&out, issuer, "user-1", "Alice"))

	claims, err := issuer.ValidToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "Alice", claims.Name)
}
