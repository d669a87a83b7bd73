package e2e_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"

	"github.com/FragileTech/ml-ops-quickstart-sub000/citest/testutil"
)

var _ = Describe("mloq config", func() {
	var (
		project *testutil.TempDir
		cli     *testutil.CLI
	)

	run := func(args ...string) *gexec.Session {
		session, err := cli.Start(project.Path, "", args...)
		Expect(err).NotTo(HaveOccurred())
		Eventually(session, testutil.DefaultTimeout).Should(gexec.Exit())
		return session
	}

	BeforeEach(func() {
		var err error
		project, err = testutil.NewTempDir()
		Expect(err).NotTo(HaveOccurred())
		cli = testutil.NewCLI(binary, home.Path)
	})

	AfterEach(func() {
		if project != nil {
			project.Cleanup()
		}
	})

	It("should write a template that setup accepts once filled in", func() {
		session := run("config", "template", "custom.yaml")
		Expect(session.ExitCode()).To(Equal(0))
		Expect(session.Err).To(gbytes.Say(`configuration template written to custom\.yaml`))

		template, err := project.ReadFile("custom.yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(template).To(MatchRegexp(`project_name: ['"]?\?\?\?`))
		Expect(template).To(MatchRegexp(`python_versions: ['"]?\$\{package\.python_versions\}`))

		// the template alone still misses the required values
		session = run("setup", "--config", "custom.yaml")
		Expect(session.ExitCode()).To(Equal(1))

		cli.Env["MLOQ_PROJECT_NAME"] = "rocket"
		cli.Env["MLOQ_OWNER"] = "acme"
		cli.Env["MLOQ_EMAIL"] = "dev@acme.io"
		cli.Env["MLOQ_COPYRIGHT_YEAR"] = "2019"
		session = run("setup", "--config", "custom.yaml")
		Expect(session.ExitCode()).To(Equal(0))

		license, err := project.ReadFile("LICENSE")
		Expect(err).NotTo(HaveOccurred())
		Expect(license).To(ContainSubstring("Copyright (c) 2019 acme"))
	})

	It("should print the template to stdout", func() {
		session := run("config", "template")
		Expect(session.ExitCode()).To(Equal(0))
		Expect(session.Out).To(gbytes.Say(`globals:`))
		Expect(session.Out).To(gbytes.Say(`lint:`))
	})

	It("should query the merged configuration", func() {
		Expect(project.WriteFile("mloq.yaml", "globals:\n  owner: acme\n  project_name: rocket\nlint:\n  linters: [ruff, mypy]\n")).To(Succeed())

		session := run("config", "show", "--query", ".lint.linters")
		Expect(session.ExitCode()).To(Equal(0))

		var linters []string
		Expect(json.Unmarshal(session.Out.Contents(), &linters)).To(Succeed())
		Expect(linters).To(Equal([]string{"ruff", "mypy"}))

		session = run("config", "show", "-q", ".globals.[")
		Expect(session.ExitCode()).To(Equal(1))
		Expect(session.Err).To(gbytes.Say(`invalid query`))
	})

	It("should list the configuration paths", func() {
		session := run("config", "paths")
		Expect(session.ExitCode()).To(Equal(0))
		Expect(session.Out).To(gbytes.Say(`Global:`))
		Expect(session.Out).To(gbytes.Say(`not found`))
	})
})
