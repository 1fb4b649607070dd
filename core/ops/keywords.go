package ops

import (
	"context"
	"strings"

	"github.com/jdelaire/autoreply/core/replies"
)

// KeywordsOp lists the configured keywords in match order.
type KeywordsOp struct {
	Router *replies.Router
}

func (k *KeywordsOp) Name() string        { return "keywords" }
func (k *KeywordsOp) Description() string { return "List the keywords I reply to" }

func (k *KeywordsOp) Execute(_ context.Context, _ Request) (Response, error) {
	kws := k.Router.Current().Keywords()
	if len(kws) == 0 {
		return Text("No keywords configured."), nil
	}

	var b strings.Builder
	b.WriteString("Keywords:\n")
	for _, kw := range kws {
		if kw == "" {
			kw = "(any other message)"
		}
		b.WriteString("  ")
		b.WriteString(kw)
		b.WriteString("\n")
	}
	return Text(b.String()), nil
}
