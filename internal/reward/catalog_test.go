package reward_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
	"github.com/MrJamesThe3rd/customcraft/internal/reward"
)

func TestResolve(t *testing.T) {
	type testCase struct {
		name     string
		itemType ledger.ItemType
		quantity int
		nick     string
		want     []string
		wantErr  error
	}

	tests := []testCase{
		{
			name:     "VIP",
			itemType: ledger.ItemVIP,
			quantity: 1,
			nick:     "Alex",
			want:     []string{"lp user Alex parent settemp vip 30d"},
		},
		{
			name:     "VIPPlusIgnoresQuantity",
			itemType: ledger.ItemVIPPlus,
			quantity: 2,
			nick:     "Alex",
			want:     []string{"lp user Alex parent settemp vip+ 30d"},
		},
		{
			name:     "RareKeys",
			itemType: ledger.ItemKeyRare,
			quantity: 5,
			nick:     "Steve_01",
			want:     []string{"crate give physical rare 5 Steve_01"},
		},
		{
			name:     "EpicKeys",
			itemType: ledger.ItemKeyEpic,
			quantity: 3,
			nick:     "Sam",
			want:     []string{"crate give physical epic 3 Sam"},
		},
		{
			name:     "LegendaryKeys",
			itemType: ledger.ItemKeyLegendary,
			quantity: 1,
			nick:     "Sam",
			want:     []string{"crate give physical legendary 1 Sam"},
		},
		{
			name:     "MythicKeys",
			itemType: ledger.ItemKeyMythic,
			quantity: 10,
			nick:     "Sam",
			want:     []string{"crate give physical mythic 10 Sam"},
		},
		{
			name:     "UnknownItem",
			itemType: "Diamond Sword",
			quantity: 1,
			nick:     "Sam",
			wantErr:  reward.ErrUnknownItemType,
		},
		{
			name:     "UnknownKeyTier",
			itemType: "Klucz Boski",
			quantity: 1,
			nick:     "Sam",
			wantErr:  reward.ErrUnknownItemType,
		},
		{
			name:     "CommandInjectionInNick",
			itemType: ledger.ItemVIP,
			quantity: 1,
			nick:     "Sam parent set admin",
			wantErr:  reward.ErrInvalidNick,
		},
		{
			name:     "NickTooShort",
			itemType: ledger.ItemVIP,
			quantity: 1,
			nick:     "Al",
			wantErr:  reward.ErrInvalidNick,
		},
		{
			name:     "ZeroQuantity",
			itemType: ledger.ItemKeyRare,
			quantity: 0,
			nick:     "Sam",
			wantErr:  reward.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reward.Resolve(tt.itemType, tt.quantity, tt.nick)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, reward.ErrValidation)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Commands)
			assert.Equal(t, tt.nick, got.Nick)
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	items := []ledger.ItemType{
		ledger.ItemVIP, ledger.ItemVIPPlus,
		ledger.ItemKeyRare, ledger.ItemKeyEpic, ledger.ItemKeyLegendary, ledger.ItemKeyMythic,
	}

	for _, item := range items {
		for _, qty := range []int{1, 2, 64} {
			first, err := reward.Resolve(item, qty, "Alex")
			require.NoError(t, err)
			assert.NotEmpty(t, first.Commands)

			second, err := reward.Resolve(item, qty, "Alex")
			require.NoError(t, err)
			assert.Equal(t, first.Commands, second.Commands)
		}

		assert.True(t, reward.Known(item))
	}

	assert.False(t, reward.Known("Klucz"))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "VIP", reward.Label(ledger.ItemVIP, 1))
	assert.Equal(t, "Klucz Epicki x3", reward.Label(ledger.ItemKeyEpic, 3))
}
