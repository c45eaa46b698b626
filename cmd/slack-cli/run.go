package main

import (
	"context"
	"fmt"

	"github.com/matsen/slack-cli/internal/config"
	"github.com/matsen/slack-cli/internal/credential"
	"github.com/matsen/slack-cli/internal/directory"
	"github.com/matsen/slack-cli/internal/idcache"
	"github.com/matsen/slack-cli/internal/resolve"
	"github.com/matsen/slack-cli/internal/retrieve"
	"github.com/matsen/slack-cli/internal/send"
	"github.com/rs/zerolog"
)

// run authenticates and dispatches to the requested action.
func (a *app) run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	o := &a.opts

	store, err := credential.NewStore(cfg.CredentialsPath(), cfg.CredentialBackend)
	if err != nil {
		return err
	}
	dial := func(token string) *directory.Client {
		return directory.New(token,
			directory.WithAPIURL(cfg.APIURL),
			directory.WithTimeout(cfg.Timeout),
			directory.WithRateLimit(cfg.RateLimit),
			directory.WithLogger(logger),
		)
	}
	token, team := credentialsFor(o, cfg)
	sess, err := credential.Init(ctx, store, token, team, dial, logger)
	if err != nil {
		return err
	}

	resolver := resolve.New(sess.Client, cfg.CachePath(), logger)

	switch {
	case o.saveCache:
		return a.saveCache(ctx, sess.Client, cfg.CachePath(), logger)
	case len(o.src) > 0:
		return a.lastMessages(ctx, resolver, sess.Client, logger)
	}

	dest, err := resolver.ResolveOne(ctx, o.dst)
	if err != nil {
		return err
	}
	sender := send.New(sess.Client, logger)

	switch {
	case o.file != "":
		return sender.Upload(ctx, dest.ID, o.file)
	case len(o.messages) == 0:
		return sender.Pipe(ctx, dest.ID, a.stdin, a.interactive, o.pre)
	case o.run:
		for _, command := range o.messages {
			if err := sender.RunCommand(ctx, dest.ID, command); err != nil {
				return err
			}
		}
		return nil
	default:
		return sender.Send(ctx, dest.ID, o.messages, o.pre)
	}
}

func (a *app) saveCache(ctx context.Context, lister idcache.Lister, path string, logger zerolog.Logger) error {
	snap, err := idcache.Rebuild(ctx, lister, path)
	if err != nil {
		return fmt.Errorf("saving id cache: %w", err)
	}
	logger.Info().
		Int("channels", len(snap.Channels)).
		Int("groups", len(snap.Groups)).
		Int("members", len(snap.Members)).
		Str("path", path).
		Msg("id cache saved")
	return nil
}

// lastMessages prints the most recent messages of each --src in turn.
func (a *app) lastMessages(ctx context.Context, resolver *resolve.Resolver, client *directory.Client, logger zerolog.Logger) error {
	o := &a.opts

	count := retrieve.DefaultCount
	if o.lastSet {
		count = o.last
	}

	if logger.GetLevel() <= zerolog.DebugLevel {
		ids, err := resolver.ResolveIDs(ctx, o.src)
		if err != nil {
			return err
		}
		logger.Debug().Interface("sources", ids).Msg("resolved sources")
	}

	r := retrieve.New(resolver, client, client, logger)
	for _, name := range o.src {
		lines, err := r.Retrieve(ctx, name, count)
		if err != nil {
			return err
		}
		for _, line := range lines {
			fmt.Fprintln(a.stdout, line)
		}
	}
	return nil
}

// credentialsFor picks the token and team handed to credential.Init. Flags beat
// the environment, and an explicit --team selects its stored token even when
// SLACK_CLI_TOKEN is set.
func credentialsFor(o *options, cfg *config.Config) (token, team string) {
	switch {
	case o.token != "":
		return o.token, o.team
	case o.team != "":
		return "", o.team
	default:
		return cfg.Token, cfg.Team
	}
}
