// Command dkgsim runs the distributed generation of a threshold Paillier key between
// in-process parties, and checks that the resulting key shares can decrypt.
package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/paillier-dkg/internal/test"
	"github.com/taurusgroup/paillier-dkg/pkg/math/sample"
	"github.com/taurusgroup/paillier-dkg/pkg/paillier"
	"github.com/taurusgroup/paillier-dkg/pkg/params"
	"github.com/taurusgroup/paillier-dkg/pkg/party"
	"github.com/taurusgroup/paillier-dkg/pkg/pool"
	"github.com/taurusgroup/paillier-dkg/pkg/protocol"
	"github.com/taurusgroup/paillier-dkg/protocols/dkg"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(cfg.LogLevel).
		With().Timestamp().Logger()

	if err = run(cfg, log); err != nil {
		log.Error().Err(err).Msg("failed")
		os.Exit(1)
	}
}

// randFor returns the randomness for label: a seeded stream when the execution is reproducible.
func randFor(cfg *Config, label string) io.Reader {
	if cfg.Seed == "" {
		return rand.Reader
	}
	return sample.NewSeededReader([]byte(cfg.Seed), label)
}

func run(cfg *Config, log zerolog.Logger) error {
	prm, err := params.New(cfg.Parties, cfg.Threshold, cfg.Bits,
		params.WithKappa(cfg.Kappa),
		params.WithRand(randFor(cfg, "parameters")),
	)
	if err != nil {
		return err
	}
	log.Info().
		Int("parties", prm.Parties).
		Int("threshold", prm.Threshold).
		Int("bits", prm.Bits).
		Int("prime_bits", prm.P.BitLen()).
		Msg("parameters")

	pl := pool.NewPool(0)
	defer pl.TearDown()

	ids := test.PartyIDs(cfg.Parties)
	network := test.NewNetwork(ids)
	keys := make([]*paillier.PrivateThresholdKey, len(ids))

	start := time.Now()
	var eg errgroup.Group
	for i, id := range ids {
		i, id := i, id
		eg.Go(func() error {
			h, err := protocol.NewMultiHandler(dkg.Start(id, ids, prm, pl), []byte(cfg.Seed),
				protocol.WithLogger(log),
				protocol.WithRand(randFor(cfg, "party "+string(id))),
			)
			if err != nil {
				return err
			}
			test.HandlerLoop(id, h, network)
			result, err := h.Result()
			if err != nil {
				return err
			}
			keys[i] = result.(*paillier.PrivateThresholdKey)
			return nil
		})
	}
	if err = eg.Wait(); err != nil {
		return err
	}
	log.Info().
		Dur("elapsed", time.Since(start)).
		Int("modulus_bits", keys[0].N.BitLen()).
		Msg("key generated")

	if err = selfCheck(keys, prm.Quorum()); err != nil {
		return err
	}
	log.Info().Msg("decryption check passed")

	if cfg.Out != "" {
		return writeKeys(cfg.Out, ids, keys)
	}
	return nil
}

// selfCheck verifies that all parties agree on the public values,
// and decrypts a random plaintext with the first quorum of key shares.
func selfCheck(keys []*paillier.PrivateThresholdKey, quorum int) error {
	for _, key := range keys[1:] {
		if key.N.Cmp(keys[0].N) != 0 || key.ThetaPrime.Cmp(keys[0].ThetaPrime) != 0 {
			return fmt.Errorf("dkgsim: %s disagrees on the public key", key.ID)
		}
	}
	pk := keys[0].PublicKey()
	plaintext := sample.Range(rand.Reader, pk.N())
	ct, _, err := pk.Enc(rand.Reader, plaintext)
	if err != nil {
		return err
	}
	shares := make([]*paillier.DecryptionShare, 0, quorum)
	for _, key := range keys[:quorum] {
		share, err := key.Decrypt(ct)
		if err != nil {
			return err
		}
		shares = append(shares, share)
	}
	decrypted, err := keys[0].Combine(shares)
	if err != nil {
		return err
	}
	if decrypted.Cmp(plaintext) != 0 {
		return errors.New("dkgsim: decrypted plaintext differs")
	}
	return nil
}

func writeKeys(dir string, ids party.IDSlice, keys []*paillier.PrivateThresholdKey) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	for i, id := range ids {
		data, err := keys[i].MarshalBinary()
		if err != nil {
			return err
		}
		if err = os.WriteFile(filepath.Join(dir, string(id)+".key"), data, 0o600); err != nil {
			return err
		}
	}
	return nil
}
