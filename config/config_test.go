package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/avhq/jsonrpc-gateway/config"
)

var _ = Describe("Config", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				configContent := `
server:
  address: ":8080"
  environment: "dev"

upstreams:
  - name: "primary"
    endpoint: "http://localhost:8081"
  - name: "secondary"
    endpoint: "http://localhost:8082"

breaker:
  failure_threshold: 3
  cooldown: "60s"
  call_timeout: "5s"

prober:
  probe_interval: "10s"

cache:
  cache_capacity: 1000
  cache_ttl: "2s"
  cache_deny_methods:
    - "eth_sendRawTransaction"

logging:
  level: "info"
`
				configPath := filepath.Join(tempDir, "config.yaml")
				err := os.WriteFile(configPath, []byte(configContent), 0644)
				Expect(err).NotTo(HaveOccurred())

				err = os.Chdir(tempDir)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse upstreams correctly", func() {
				cfg, _ := config.Load()
				Expect(cfg.Upstreams).To(HaveLen(2))
				Expect(cfg.Upstreams[0].Name).To(Equal("primary"))
				Expect(cfg.Upstreams[0].Endpoint).To(Equal("http://localhost:8081"))
			})

			It("should parse breaker settings", func() {
				cfg, _ := config.Load()
				Expect(cfg.Breaker.FailureThreshold).To(Equal(3))
				Expect(cfg.Breaker.Cooldown).To(Equal("60s"))
			})

			It("should parse cache deny methods", func() {
				cfg, _ := config.Load()
				Expect(cfg.Cache.DenyMethods).To(ContainElement("eth_sendRawTransaction"))
			})
		})

		Context("missing required upstreams", func() {
			BeforeEach(func() {
				configContent := `
server:
  address: ":8080"
  environment: "dev"

breaker:
  failure_threshold: 3
  cooldown: "60s"
  call_timeout: "5s"

prober:
  probe_interval: "10s"

cache:
  cache_capacity: 1000
  cache_ttl: "2s"

logging:
  level: "info"
`
				configPath := filepath.Join(tempDir, "config.yaml")
				err := os.WriteFile(configPath, []byte(configContent), 0644)
				Expect(err).NotTo(HaveOccurred())

				err = os.Chdir(tempDir)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should fail validation with no upstreams configured", func() {
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})
})
