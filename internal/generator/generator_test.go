package generator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notifyhub/topic-channel/internal/domain"
	"github.com/notifyhub/topic-channel/internal/generator"
	"github.com/notifyhub/topic-channel/internal/random"
)

func TestFactory_EmailAddress(t *testing.T) {
	f := generator.NewFactory(random.New(1))
	addr := f.EmailAddress()

	local, host, ok := strings.Cut(addr, "@")
	require.True(t, ok, "address %q has no @", addr)
	require.Equal(t, "gmail.com", host)
	require.Len(t, local, 16)
}

func TestFactory_PhoneNumber(t *testing.T) {
	f := generator.NewFactory(random.New(2))
	phone := f.PhoneNumber()

	require.Len(t, phone, 10)
	require.True(t, strings.HasPrefix(phone, "9"))
	for _, r := range phone {
		require.True(t, r >= '0' && r <= '9', "non-digit in %q", phone)
	}
}

func TestFactory_Content(t *testing.T) {
	f := generator.NewFactory(random.New(3))
	require.Len(t, f.Content(), 64)
}

func TestFactory_TopicVariants(t *testing.T) {
	f := generator.NewFactory(random.New(4))

	counts := map[domain.MessageType]int{}
	ids := map[string]bool{}
	for _, topic := range f.Batch(200) {
		counts[topic.Type]++
		require.Equal(t, topic.Type, topic.Message.Type)
		require.False(t, ids[topic.ID], "duplicate topic id %s", topic.ID)
		ids[topic.ID] = true

		switch topic.Type {
		case domain.MessageEmail:
			require.Contains(t, topic.Message.Address, "@")
		case domain.MessageSMS:
			require.NotContains(t, topic.Message.Address, "@")
		default:
			t.Fatalf("unexpected type %q", topic.Type)
		}
	}

	require.Positive(t, counts[domain.MessageEmail], "expected some email topics")
	require.Positive(t, counts[domain.MessageSMS], "expected some sms topics")
}

func TestFactory_BatchZero(t *testing.T) {
	f := generator.NewFactory(random.New(5))
	require.Empty(t, f.Batch(0))
}
