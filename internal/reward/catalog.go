// Package reward maps purchasable items to RCON commands and dispatches them.
package reward

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnknownItemType = fmt.Errorf("%w: unknown item type", ErrValidation)
	ErrInvalidNick     = fmt.Errorf("%w: invalid minecraft nick", ErrValidation)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", ErrValidation)
)

// Minecraft usernames; anything else could smuggle extra arguments into a command.
var nickPattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`)

const rankDuration = "30d"

type builder func(nick string, quantity int) []string

func rank(group string) builder {
	return func(nick string, _ int) []string {
		return []string{fmt.Sprintf("lp user %s parent settemp %s %s", nick, group, rankDuration)}
	}
}

func crateKeys(crate string) builder {
	return func(nick string, quantity int) []string {
		return []string{fmt.Sprintf("crate give physical %s %d %s", crate, quantity, nick)}
	}
}

// catalog is the complete set of rewards. New items only need an entry here.
var catalog = map[ledger.ItemType]builder{
	ledger.ItemVIP:          rank("vip"),
	ledger.ItemVIPPlus:      rank("vip+"),
	ledger.ItemKeyRare:      crateKeys("rare"),
	ledger.ItemKeyEpic:      crateKeys("epic"),
	ledger.ItemKeyLegendary: crateKeys("legendary"),
	ledger.ItemKeyMythic:    crateKeys("mythic"),
}

// Grant is the resolved set of commands delivering one reward to one player.
type Grant struct {
	ItemType ledger.ItemType
	Quantity int
	Nick     string
	Commands []string
}

// Known reports whether itemType has a catalog entry.
func Known(itemType ledger.ItemType) bool {
	_, ok := catalog[itemType]
	return ok
}

// Resolve builds the commands for itemType × quantity. It has no side effects.
func Resolve(itemType ledger.ItemType, quantity int, nick string) (*Grant, error) {
	build, ok := catalog[itemType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItemType, itemType)
	}

	if !nickPattern.MatchString(nick) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNick, nick)
	}

	if quantity < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	return &Grant{
		ItemType: itemType,
		Quantity: quantity,
		Nick:     nick,
		Commands: build(nick, quantity),
	}, nil
}

// Label renders a reward the way players see it, e.g. "Klucz Epicki x3".
func Label(itemType ledger.ItemType, quantity int) string {
	if quantity > 1 {
		return fmt.Sprintf("%s x%d", itemType, quantity)
	}

	return string(itemType)
}
