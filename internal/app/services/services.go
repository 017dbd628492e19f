// Package services holds the business logic behind the HTTP controllers.
//
//   - RegistrationService: registration webhook workflow
//   - Provisioner: pairs a teacher row with its identity, compensates and resolves pending rows
//   - Reconciler: background pass over pending rows and expired sessions
//   - AuthService: login, refresh, logout, password change and claim links
//   - ProfileService: portfolio of the signed-in teacher
//   - AdminService: counters, catalogue management and approvals
package services
