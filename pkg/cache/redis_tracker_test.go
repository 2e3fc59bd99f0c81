package cache

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DownloadTracker", func() {
	var (
		mr      *miniredis.Miniredis
		client  *redis.Client
		tracker *DownloadTracker
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		tracker = &DownloadTracker{Client: client, TTL: time.Hour}
		ctx = context.Background()
	})

	AfterEach(func() {
		client.Close()
		mr.Close()
	})

	It("reports a fresh checksum as not a duplicate", func() {
		dup, err := tracker.IsDuplicate(ctx, "checksum-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(dup).To(BeFalse())
	})

	It("reports a marked checksum as a duplicate", func() {
		Expect(tracker.MarkSeen(ctx, "checksum-1")).To(Succeed())

		dup, err := tracker.IsDuplicate(ctx, "checksum-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(dup).To(BeTrue())
	})

	It("lets a checksum expire after its TTL", func() {
		tracker.TTL = time.Second
		Expect(tracker.MarkSeen(ctx, "checksum-1")).To(Succeed())
		mr.FastForward(2 * time.Second)

		dup, err := tracker.IsDuplicate(ctx, "checksum-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(dup).To(BeFalse())
	})

	It("namespaces keys under the configured prefix", func() {
		tracker.Prefix = "custom:"
		Expect(tracker.MarkSeen(ctx, "checksum-1")).To(Succeed())
		Expect(mr.Exists("custom:checksum-1")).To(BeTrue())
	})
})
