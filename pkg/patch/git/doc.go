// Package git syncs rule sets from a remote Git repository.
//
// Teams that version sampling rules remotely point the manager at a
// repository instead of a local directory. This package clones the
// repository, polls it for new commits, and hands the checked-out rule
// directory to the loader whenever rule files change. Heads that touch
// no rule files are skipped, and a head whose rules fail to load is
// rolled back so the checkout always matches the running program.
//
// # Basic Usage
//
//	cfg := &config.GitRulesConfig{
//		Repository: "https://github.com/team/sampling-rules.git",
//		Branch:     "main",
//		Path:       "rules/",
//	}
//
//	repo, err := git.NewRepository(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := repo.Clone(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// # Change Detection
//
// The poll watcher pulls at an interval and compares head hashes:
//
//	watcher := git.NewPollWatcher(repo, 30*time.Second, 10*time.Second, reload)
//	if err := watcher.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer watcher.Stop()
//
// # Authentication
//
//   - Token (HTTPS): GitHub, GitLab, Bitbucket access tokens
//   - SSH key: public key auth with optional passphrase
//   - None: public repositories
//
// Token and passphrase values support ${VAR} expansion at config load.
//
// # Branch-Based Environments
//
// Track different branches per environment: a render farm can follow
// main while a staging box follows a dev branch of the same rules.
package git
