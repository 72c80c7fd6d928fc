//go:build integration

package integration

import (
	"context"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/ad_mute/internal/daemon"
	"github.com/eliteGoblin/focusd/ad_mute/internal/infra"
	"github.com/eliteGoblin/focusd/ad_mute/internal/policy"
	"github.com/eliteGoblin/focusd/ad_mute/internal/scanner"
	"github.com/eliteGoblin/focusd/ad_mute/internal/usecase"
	"github.com/eliteGoblin/focusd/ad_mute/test/fixtures"
)

const (
	musicURI = "spotify:track:6rqhFgbbKwnb9MLmUQDhG6"
	adURI    = "spotify:ad:000000012c6bc4b1"
)

var _ = Describe("Engine", func() {
	var (
		tmpDir  string
		data    *fixtures.FakeSpotifyData
		proc    *fixtures.FakeSpotifyProcess
		watcher *infra.FSWatcher
		player  *usecase.MemoryPlayer
		cancel  context.CancelFunc
		done    chan error
	)

	start := func(track string) {
		proc = fixtures.NewFakeSpotifyProcess(track)

		accounts, err := infra.AccountDirs(data.UsersDir(), "")
		Expect(err).NotTo(HaveOccurred())
		watcher, err = infra.NewFSWatcher(data.UsersDir(), accounts, "", zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		target := policy.ToTarget(policy.NewSpotifyPolicyForOS("windows"))
		player = usecase.NewMemoryPlayer(target, proc, proc, proc, proc,
			scanner.NewDefault(), 10*time.Millisecond, zap.NewNop())

		guardian := daemon.NewGuardian(daemon.GuardianConfig{CheckInterval: 10 * time.Millisecond}, proc, zap.NewNop())
		engine := daemon.NewEngine(
			daemon.EngineConfig{SettleDelay: 20 * time.Millisecond, RetryInterval: 10 * time.Millisecond},
			player,
			watcher,
			policy.NewEventFilter(target.StateFiles),
			policy.NewClassifier(target.AdSentinel),
			guardian,
			zap.NewNop(),
		)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
		go func() { done <- engine.Run(ctx) }()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "admute-integration-*")
		Expect(err).NotTo(HaveOccurred())

		data = fixtures.NewFakeSpotifyData(tmpDir)
		Expect(data.Create("alice")).To(Succeed())
	})

	AfterEach(func() {
		if cancel != nil {
			cancel()
			Eventually(done).WithTimeout(3 * time.Second).Should(Receive(MatchError(context.Canceled)))
		}
		if watcher != nil {
			Expect(watcher.Close()).To(Succeed())
		}
		if player != nil {
			Expect(player.Close()).To(Succeed())
		}
		cancel, watcher, player = nil, nil, nil
		os.RemoveAll(tmpDir)
	})

	Context("when an ad is already playing at startup", func() {
		It("should mute immediately", func() {
			start(adURI)

			Eventually(proc.Muted).WithTimeout(3 * time.Second).Should(BeTrue())
			Expect(proc.MuteCalls()).To(Equal([]bool{true}))
		})
	})

	Context("when playback switches between music and ads", func() {
		It("should mute during the ad and unmute afterwards", func() {
			start(musicURI)
			Eventually(proc.Reads).WithTimeout(3 * time.Second).Should(BeNumerically(">=", 1))

			proc.SetTrack(adURI)
			Expect(data.TouchAdState("alice")).To(Succeed())
			Eventually(proc.Muted).WithTimeout(3 * time.Second).Should(BeTrue())

			proc.SetTrack(musicURI)
			Expect(data.TouchRecentlyPlayed("alice")).To(Succeed())
			Eventually(proc.Muted).WithTimeout(3 * time.Second).Should(BeFalse())

			Expect(proc.MuteCalls()).To(Equal([]bool{true, false}))
		})

		It("should ignore files outside the allow-list", func() {
			start(musicURI)
			Eventually(proc.Reads).WithTimeout(3 * time.Second).Should(BeNumerically(">=", 1))

			proc.SetTrack(adURI)
			Expect(data.TouchUnrelated("alice")).To(Succeed())

			Consistently(proc.MuteCalls).WithTimeout(200 * time.Millisecond).Should(BeEmpty())
		})
	})

	Context("when a new account signs in", func() {
		It("should follow the new account directory", func() {
			start(musicURI)
			Eventually(proc.Reads).WithTimeout(3 * time.Second).Should(BeNumerically(">=", 1))

			Expect(data.AddAccount("bob")).To(Succeed())
			// Give the watcher a moment to add the new directory.
			time.Sleep(100 * time.Millisecond)

			proc.SetTrack(adURI)
			Expect(data.TouchAdState("bob")).To(Succeed())
			Eventually(proc.Muted).WithTimeout(3 * time.Second).Should(BeTrue())
		})
	})

	Context("when Spotify exits", func() {
		It("should relaunch it and adopt the mute carried over", func() {
			start(adURI)
			Eventually(proc.Muted).WithTimeout(3 * time.Second).Should(BeTrue())

			proc.Exit()

			Eventually(proc.Launches).WithTimeout(3 * time.Second).Should(Equal(1))
			Eventually(proc.PID).WithTimeout(3 * time.Second).Should(Equal(fixtures.FakePID + 1))
			Consistently(proc.MuteCalls).WithTimeout(100 * time.Millisecond).Should(Equal([]bool{true}))

			proc.SetTrack(musicURI)
			Expect(data.TouchAdState("alice")).To(Succeed())
			Eventually(proc.Muted).WithTimeout(3 * time.Second).Should(BeFalse())
			Expect(proc.MuteCalls()).To(Equal([]bool{true, false}))
		})

		It("should mute a relaunched instance that starts unmuted", func() {
			start(musicURI)
			Eventually(proc.Reads).WithTimeout(3 * time.Second).Should(BeNumerically(">=", 1))

			proc.SetTrack(adURI)
			proc.Exit()

			Eventually(proc.Launches).WithTimeout(3 * time.Second).Should(Equal(1))
			Eventually(proc.Muted).WithTimeout(3 * time.Second).Should(BeTrue())
			Expect(proc.MuteCalls()).To(Equal([]bool{true}))
		})
	})

	Context("when a read fails while Spotify keeps running", func() {
		It("should re-attach to the same process and still unmute after the ad", func() {
			start(adURI)
			Eventually(proc.Muted).WithTimeout(3 * time.Second).Should(BeTrue())
			reads := proc.Reads()

			proc.FailNextReads(1)
			Expect(data.TouchAdState("alice")).To(Succeed())
			Eventually(proc.Reads).WithTimeout(3 * time.Second).Should(BeNumerically(">=", reads+2))
			Expect(proc.PID()).To(Equal(fixtures.FakePID))
			Expect(proc.Launches()).To(Equal(0))

			proc.SetTrack(musicURI)
			Expect(data.TouchRecentlyPlayed("alice")).To(Succeed())
			Eventually(proc.Muted).WithTimeout(3 * time.Second).Should(BeFalse())
			Expect(proc.MuteCalls()).To(Equal([]bool{true, false}))
		})
	})

	Describe("shutdown", func() {
		It("should leave the last mute state in place", func() {
			start(adURI)
			Eventually(proc.Muted).WithTimeout(3 * time.Second).Should(BeTrue())

			cancel()
			Eventually(done).WithTimeout(3 * time.Second).Should(Receive(MatchError(context.Canceled)))
			cancel = nil

			Expect(proc.Muted()).To(BeTrue())
			Expect(proc.MuteCalls()).To(Equal([]bool{true}))
		})
	})
})
