package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Roles", func() {
	ginkgo.Describe("Valid", func() {
		ginkgo.It("should accept every defined role", func() {
			for r := range allRoles {
				gomega.Expect(r.Valid()).To(gomega.BeTrue(), string(r))
			}
		})

		ginkgo.It("should reject unknown role strings", func() {
			gomega.Expect(Role("SUPERUSER").Valid()).To(gomega.BeFalse())
			gomega.Expect(Role("").Valid()).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("capability predicates", func() {
		ginkgo.It("should treat admins as managers", func() {
			gomega.Expect(IsManager(RoleSystemAdmin)).To(gomega.BeTrue())
			gomega.Expect(IsManager(RoleOfficeAdmin)).To(gomega.BeTrue())
		})

		ginkgo.It("should not grant resolve capability to individual contributors", func() {
			gomega.Expect(CanResolveApprovals(RoleSoftwareEngineer)).To(gomega.BeFalse())
			gomega.Expect(CanResolveApprovals(RoleSupportExec)).To(gomega.BeFalse())
			gomega.Expect(CanResolveApprovals(RoleOperationsExec)).To(gomega.BeFalse())
		})

		ginkgo.It("should grant resolve capability to the approver tiers", func() {
			gomega.Expect(CanResolveApprovals(RoleManager)).To(gomega.BeTrue())
			gomega.Expect(CanResolveApprovals(RoleHRExec)).To(gomega.BeTrue())
			gomega.Expect(CanResolveApprovals(RoleSystemAdmin)).To(gomega.BeTrue())
		})

		ginkgo.It("should restrict audit log access to admins", func() {
			gomega.Expect(CanViewAuditLogs(RoleSystemAdmin)).To(gomega.BeTrue())
			gomega.Expect(CanViewAuditLogs(RoleHRManager)).To(gomega.BeFalse())
			gomega.Expect(CanViewAuditLogs(RoleManager)).To(gomega.BeFalse())
		})

		ginkgo.It("should fail every check for unknown roles", func() {
			unknown := Role("CONTRACTOR")
			gomega.Expect(IsAdmin(unknown)).To(gomega.BeFalse())
			gomega.Expect(IsHR(unknown)).To(gomega.BeFalse())
			gomega.Expect(IsManager(unknown)).To(gomega.BeFalse())
			gomega.Expect(CanResolveApprovals(unknown)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("ApprovalVisibilityFor", func() {
		ginkgo.It("should give admins and hr full visibility", func() {
			gomega.Expect(ApprovalVisibilityFor(RoleSystemAdmin)).To(gomega.Equal(VisibilityAll))
			gomega.Expect(ApprovalVisibilityFor(RoleHRExec)).To(gomega.Equal(VisibilityAll))
			gomega.Expect(ApprovalVisibilityFor(RolePayrollOfficer)).To(gomega.Equal(VisibilityAll))
		})

		ginkgo.It("should give managers assigned visibility", func() {
			gomega.Expect(ApprovalVisibilityFor(RoleManager)).To(gomega.Equal(VisibilityAssigned))
			gomega.Expect(ApprovalVisibilityFor(RoleTeamLead)).To(gomega.Equal(VisibilityAssigned))
			gomega.Expect(ApprovalVisibilityFor(RoleDeptHead)).To(gomega.Equal(VisibilityAssigned))
		})

		ginkgo.It("should default everyone else to own requests only", func() {
			gomega.Expect(ApprovalVisibilityFor(RoleSoftwareEngineer)).To(gomega.Equal(VisibilityOwn))
			gomega.Expect(ApprovalVisibilityFor(Role("UNKNOWN"))).To(gomega.Equal(VisibilityOwn))
		})
	})
})
