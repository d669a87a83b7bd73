package e2e_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"

	"github.com/FragileTech/ml-ops-quickstart-sub000/citest/testutil"
)

var _ = Describe("mloq setup", func() {
	var (
		project *testutil.TempDir
		cli     *testutil.CLI
	)

	run := func(stdin string, args ...string) *gexec.Session {
		session, err := cli.Start(project.Path, stdin, args...)
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

	Context("with every required value in the environment", func() {
		BeforeEach(func() {
			cli.Env["MLOQ_PROJECT_NAME"] = "rocket"
			cli.Env["MLOQ_OWNER"] = "acme"
			cli.Env["MLOQ_EMAIL"] = "dev@acme.io"
		})

		It("should generate the project and persist the configuration", func() {
			session := run("", "setup")
			Expect(session.ExitCode()).To(Equal(0))
			Expect(session.Out).To(gbytes.Say(`11 files written, 0 skipped`))

			for _, name := range []string{
				"LICENSE", "README.md", "pyproject.toml", "src/rocket/__init__.py",
				".github/workflows/push.yml", "Dockerfile", "Makefile", "mloq.yaml",
			} {
				Expect(project.Exists(name)).To(BeTrue(), name)
			}

			config, err := project.ReadFile("mloq.yaml")
			Expect(err).NotTo(HaveOccurred())
			Expect(config).To(ContainSubstring("owner: acme"))
			Expect(config).To(ContainSubstring("project_url: https://github.com/acme/rocket"))
		})

		It("should let the environment win over the file", func() {
			Expect(project.WriteFile("mloq.yaml", "globals:\n  owner: someone\n")).To(Succeed())

			session := run("", "setup")
			Expect(session.ExitCode()).To(Equal(0))

			license, err := project.ReadFile("LICENSE")
			Expect(err).NotTo(HaveOccurred())
			Expect(license).To(ContainSubstring("acme"))
			Expect(license).NotTo(ContainSubstring("someone"))
		})

		It("should honor disabled namespaces", func() {
			cli.Env["MLOQ_DISABLE"] = "true"

			session := run("", "setup")
			Expect(session.ExitCode()).To(Equal(0))
			Expect(project.Exists(".gitignore")).To(BeTrue())
			Expect(project.Exists("LICENSE")).To(BeFalse())
			Expect(project.Exists("Dockerfile")).To(BeFalse())
		})

		It("should print diffs without writing on a dry run", func() {
			session := run("", "setup", "--dry-run", "--only", "readme")
			Expect(session.ExitCode()).To(Equal(0))
			Expect(session.Out).To(gbytes.Say(`\+\+\+ b/README.md`))
			Expect(session.Out).To(gbytes.Say(`dry run: 2 files would be written`))
			Expect(project.Exists("README.md")).To(BeFalse())
			Expect(project.Exists("mloq.yaml")).To(BeFalse())
		})

		It("should keep existing files unless asked to overwrite", func() {
			Expect(project.WriteFile("README.md", "hand written\n")).To(Succeed())

			session := run("", "setup", "--skip", ".github/**")
			Expect(session.ExitCode()).To(Equal(0))
			Expect(session.Out).To(gbytes.Say(`9 files written, 2 skipped`))
			Expect(project.ReadFile("README.md")).To(Equal("hand written\n"))
			Expect(project.Exists(".github/workflows/push.yml")).To(BeFalse())

			session = run("", "setup", "--overwrite")
			Expect(session.ExitCode()).To(Equal(0))
			Expect(project.ReadFile("README.md")).To(HavePrefix("# rocket"))
		})
	})

	It("should regenerate the same project from the persisted configuration", func() {
		cli.Env["MLOQ_PROJECT_NAME"] = "rocket"
		cli.Env["MLOQ_OWNER"] = "acme"
		cli.Env["MLOQ_EMAIL"] = "dev@acme.io"
		Expect(run("", "setup").ExitCode()).To(Equal(0))
		before, err := project.ReadFile("pyproject.toml")
		Expect(err).NotTo(HaveOccurred())

		cli.Env = map[string]string{}
		session := run("", "setup", "--overwrite")
		Expect(session.ExitCode()).To(Equal(0))
		Expect(project.ReadFile("pyproject.toml")).To(Equal(before))
	})

	It("should read values from an env file", func() {
		Expect(project.WriteFile("values.env", "MLOQ_PROJECT_NAME=rocket\nMLOQ_OWNER=acme\nMLOQ_EMAIL=dev@acme.io\n")).To(Succeed())

		session := run("", "setup", "--env-file", project.Join("values.env"))
		Expect(session.ExitCode()).To(Equal(0))
		Expect(project.Exists("src/rocket/version.py")).To(BeTrue())
	})

	It("should fail without writing anything when a value is missing", func() {
		cli.Env["MLOQ_PROJECT_NAME"] = "rocket"
		cli.Env["MLOQ_OWNER"] = "acme"

		session := run("", "setup")
		Expect(session.ExitCode()).To(Equal(1))
		Expect(session.Err).To(gbytes.Say(`missing value for globals\.email`))
		Expect(session.Err).To(gbytes.Say(`MLOQ_EMAIL`))
		Expect(project.Exists("LICENSE")).To(BeFalse())
		Expect(project.Exists("mloq.yaml")).To(BeFalse())
	})

	It("should reject an invalid choice", func() {
		cli.Env["MLOQ_PROJECT_NAME"] = "rocket"
		cli.Env["MLOQ_OWNER"] = "acme"
		cli.Env["MLOQ_EMAIL"] = "dev@acme.io"
		cli.Env["MLOQ_LICENSE"] = "WTFPL"

		session := run("", "setup")
		Expect(session.ExitCode()).To(Equal(1))
		Expect(session.Err).To(gbytes.Say(`MLOQ_LICENSE`))
	})

	Describe("interactive mode", func() {
		It("should prompt for every value of the selected namespaces", func() {
			answers := "rocket\nacme\n\ndev@acme.io\n\n\n\n\n" + "\nGPL-3.0\n2020\n\n"

			session := run(answers, "setup", "--interactive", "--only", "license")
			Expect(session.ExitCode()).To(Equal(0))
			Expect(session.Err).To(gbytes.Say(`globals\.project_name: `))
			Expect(session.Err).To(gbytes.Say(`license\.license \[MIT\]: `))

			license, err := project.ReadFile("LICENSE")
			Expect(err).NotTo(HaveOccurred())
			Expect(license).To(ContainSubstring("Copyright (C) 2020 acme"))
		})

		It("should abort with status 130 when input ends", func() {
			session := run("rocket\n", "setup", "--interactive")
			Expect(session.ExitCode()).To(Equal(130))
			Expect(session.Err).To(gbytes.Say(`aborted`))
			Expect(project.Exists("mloq.yaml")).To(BeFalse())
		})
	})
})
