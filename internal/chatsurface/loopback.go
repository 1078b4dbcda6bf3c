// Package chatsurface provides the loopback interfaces.ChatSurface adapter
// shipped alongside this module's production wiring: since the real chat
// platform adapter is out of scope by interface (spec §6), the container
// wires this adapter in its place, logging every post the way a production
// adapter would ship it to a channel.
package chatsurface

import (
	"context"
	"fmt"
	"sync"

	"github.com/beacon-labs/wikimind/internal/logger"
	"github.com/beacon-labs/wikimind/internal/types/interfaces"
)

// Loopback implements interfaces.ChatSurface by logging every outbound call
// and keeping an in-memory record of posts, so local demos and tests can
// assert on what would have been sent.
type Loopback struct {
	mu            sync.Mutex
	usersByEmail  map[string]string
	channelPosts  []LoopbackPost
	directPosts   []LoopbackPost
	ephemeral     []LoopbackPost
	nextTimestamp int
}

// LoopbackPost records one outbound message for later inspection.
type LoopbackPost struct {
	Target  string // channel ID, user ID, or thread ref
	Text    string
	Actions []interfaces.ActionButton
}

// NewLoopback builds a Loopback adapter. Seed user emails via RegisterUser
// before relying on LookupUserByEmail.
func NewLoopback() *Loopback {
	return &Loopback{usersByEmail: make(map[string]string)}
}

// RegisterUser seeds an email -> userID mapping for LookupUserByEmail.
func (l *Loopback) RegisterUser(email, userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.usersByEmail[email] = userID
}

func (l *Loopback) PostMessage(ctx context.Context, channelID, threadRef, text string, actions ...interfaces.ActionButton) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextTimestamp++
	ts := fmt.Sprintf("loopback-%d", l.nextTimestamp)
	l.channelPosts = append(l.channelPosts, LoopbackPost{Target: channelID, Text: text, Actions: actions})
	logger.Infof(ctx, "chatsurface: posted to channel %s (thread %s): %s", channelID, threadRef, text)
	return ts, nil
}

func (l *Loopback) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ephemeral = append(l.ephemeral, LoopbackPost{Target: channelID, Text: text})
	logger.Infof(ctx, "chatsurface: ephemeral to %s in %s: %s", userID, channelID, text)
	return nil
}

func (l *Loopback) OpenModal(ctx context.Context, triggerRef string, schema interfaces.ModalSchema) error {
	logger.Infof(ctx, "chatsurface: would open modal %q (trigger %s)", schema.Title, triggerRef)
	return nil
}

func (l *Loopback) LookupUserByEmail(ctx context.Context, email string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	userID, found := l.usersByEmail[email]
	return userID, found, nil
}

func (l *Loopback) PostDirectMessage(ctx context.Context, userID, text string, actions []interfaces.ActionButton) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.directPosts = append(l.directPosts, LoopbackPost{Target: userID, Text: text, Actions: actions})
	logger.Infof(ctx, "chatsurface: direct message to %s: %s", userID, text)
	return nil
}

// ChannelPosts returns a snapshot of everything posted via PostMessage.
func (l *Loopback) ChannelPosts() []LoopbackPost {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LoopbackPost, len(l.channelPosts))
	copy(out, l.channelPosts)
	return out
}
