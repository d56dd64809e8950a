package esxi_test

import (
	"context"
	"errors"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"esxinventory/internal/esxi"
	"esxinventory/internal/testutil"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var _ = Describe("Settings", func() {
	It("should build the SDK URL", func() {
		s := esxi.Settings{Host: "192.168.88.4", Port: 443}
		Expect(s.URL().String()).To(Equal("https://192.168.88.4:443/sdk"))
	})

	It("should bracket IPv6 hosts", func() {
		s := esxi.Settings{Host: "fe80::1", Port: 8443}
		Expect(s.URL().Host).To(Equal("[fe80::1]:8443"))
	})
})

var _ = Describe("Session against the simulator", func() {
	var (
		ctx context.Context
		sim *testutil.Simulator
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		sim, err = testutil.StartSimulator()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(sim.Close)
	})

	settings := func() esxi.Settings {
		return esxi.Settings{
			Host:     sim.Host,
			Port:     sim.Port,
			Username: sim.Username,
			Password: sim.Password,
		}
	}

	It("should list the simulated virtual machines", func() {
		sess, err := esxi.Connect(ctx, settings(), quietLogger())
		Expect(err).NotTo(HaveOccurred())
		defer sess.Close(ctx)

		records, err := sess.ListVirtualMachines(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).NotTo(BeEmpty())
		for _, r := range records {
			Expect(r.Name).NotTo(BeEmpty())
			Expect(r.PowerState).NotTo(BeEmpty())
		}
	})

	It("should be safe to close twice", func() {
		sess, err := esxi.Connect(ctx, settings(), quietLogger())
		Expect(err).NotTo(HaveOccurred())

		Expect(sess.Close(ctx)).To(Succeed())
		Expect(sess.Close(ctx)).To(Succeed())
	})

	It("should fail TLS verification against a self-signed endpoint", func() {
		s := settings()
		s.VerifyTLS = true

		_, err := esxi.Connect(ctx, s, quietLogger())
		var connErr *esxi.ConnectionError
		Expect(errors.As(err, &connErr)).To(BeTrue())
		Expect(connErr.Op).To(Equal("connect"))
	})

	It("should report rejected credentials as a login failure", func() {
		s := settings()
		s.Password = ""

		_, err := esxi.Connect(ctx, s, quietLogger())
		var connErr *esxi.ConnectionError
		Expect(errors.As(err, &connErr)).To(BeTrue())
		Expect(connErr.Op).To(Equal("login"))
	})
})

var _ = Describe("Connect", func() {
	It("should report an unreachable endpoint as a connection failure", func() {
		sim, err := testutil.StartSimulator()
		Expect(err).NotTo(HaveOccurred())
		s := esxi.Settings{Host: sim.Host, Port: sim.Port, Username: "u", Password: "p"}
		sim.Close()

		_, err = esxi.Connect(context.Background(), s, quietLogger())
		var connErr *esxi.ConnectionError
		Expect(errors.As(err, &connErr)).To(BeTrue())
		Expect(connErr.Op).To(Equal("connect"))
		Expect(connErr.Host).To(ContainSubstring(sim.Host))
	})
})
