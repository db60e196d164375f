package bridge

import (
	"regexp"
	"strconv"
	"strings"
)

var ticketToken = regexp.MustCompile(`^T-([0-9]+)`)

// ExtractTickets returns the ticket numbers referenced at the start of a
// commit message. Only the leading run of tokens starting with T-<n> counts,
// so "T-12:" and "T-12," still reference ticket 12. The first token that does
// not start with a ticket reference ends the run.
func ExtractTickets(message string) []int {
	var ids []int
	for _, token := range strings.Fields(message) {
		m := ticketToken.FindStringSubmatch(token)
		if m == nil {
			break
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			break
		}
		ids = append(ids, id)
	}
	return ids
}

// CollectTickets merges the ticket numbers of several commit messages,
// dropping duplicates and keeping first-seen order.
func CollectTickets(messages []string) []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, message := range messages {
		for _, id := range ExtractTickets(message) {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
