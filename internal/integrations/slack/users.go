package slackbot

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
)

const userCacheTTL = 5 * time.Minute

type userLister interface {
	GetUsers(options ...slack.GetUsersOption) ([]slack.User, error)
}

// adminSet resolves the configured admin identifiers (Slack IDs, handles,
// real or display names) to user IDs. An empty set admits nobody.
type adminSet struct {
	identifiers []string
	lister      userLister

	mu         sync.Mutex
	users      []slack.User
	fetchedAt  time.Time
	resolved   []string
	resolvedAt time.Time
}

func newAdminSet(lister userLister, identifiers []string) *adminSet {
	return &adminSet{identifiers: identifiers, lister: lister}
}

func (a *adminSet) configured() bool {
	return len(a.identifiers) > 0
}

func (a *adminSet) isAdmin(userID string) (bool, error) {
	if !a.configured() {
		return false, nil
	}
	ids, err := a.resolve()
	for _, id := range ids {
		if id == userID {
			return true, nil
		}
	}
	return false, err
}

func (a *adminSet) resolve() ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resolved != nil && time.Since(a.resolvedAt) < userCacheTTL {
		return a.resolved, nil
	}

	var ids, names []string
	for _, raw := range a.identifiers {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if isLikelySlackID(val) {
			ids = append(ids, val)
		} else {
			names = append(names, val)
		}
	}
	if len(names) == 0 {
		a.resolved, a.resolvedAt = uniqueStrings(ids), time.Now()
		return a.resolved, nil
	}

	users, err := a.cachedUsers()
	if err != nil {
		log.Printf("resolve admins: get users error: %v", err)
		return uniqueStrings(ids), err
	}

	nameToID := make(map[string]string)
	for _, user := range users {
		for _, n := range []string{user.Name, user.RealName, user.Profile.DisplayName} {
			n = strings.ToLower(strings.TrimSpace(n))
			if n == "" {
				continue
			}
			if _, exists := nameToID[n]; !exists {
				nameToID[n] = user.ID
			}
		}
	}

	var unresolved []string
	for _, name := range names {
		if id, ok := nameToID[strings.ToLower(name)]; ok {
			ids = append(ids, id)
		} else {
			unresolved = append(unresolved, name)
		}
	}
	if len(unresolved) > 0 {
		log.Printf("resolve admins: unresolved=%s", strings.Join(unresolved, ", "))
	}
	a.resolved, a.resolvedAt = uniqueStrings(ids), time.Now()
	return a.resolved, nil
}

func (a *adminSet) cachedUsers() ([]slack.User, error) {
	if a.users != nil && time.Since(a.fetchedAt) < userCacheTTL {
		return a.users, nil
	}
	users, err := a.lister.GetUsers()
	if err != nil {
		return nil, err
	}
	a.users, a.fetchedAt = users, time.Now()
	return users, nil
}

func isLikelySlackID(val string) bool {
	if len(val) < 9 {
		return false
	}
	for i, r := range val {
		if i == 0 {
			if r != 'U' && r != 'W' {
				return false
			}
			continue
		}
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func uniqueStrings(vals []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, v := range vals {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
