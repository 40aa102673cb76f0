// Package http exposes the shift scheduling API over JSON.
//
// Public endpoints:
//   - GET /healthz: {"ok": true}.
//   - POST /api/auth/register, POST /api/auth/login: body {"email","password"},
//     response {"token"}. The first account registered is a superadmin.
//
// Every /api endpoint below requires "Authorization: Bearer <token>":
//   - GET /api/me
//   - GET, POST /api/schedules and GET /api/schedules/{schedule_id}
//   - GET, POST /api/schedules/{schedule_id}/members; POST
//     /api/schedules/{schedule_id}/members/{user_id}/role (204)
//   - GET /api/schedules/{schedule_id}/shifts?from=&to= (RFC 3339, half open);
//     POST /api/schedules/{schedule_id}/shifts
//   - POST /api/shifts/{shift_id}/assign (204), GET, POST /api/shifts/{shift_id}/comments
//   - GET, POST /api/schedules/{schedule_id}/templates; POST
//     /api/schedules/{schedule_id}/templates/{template_id}/apply (201, created shifts)
//
// Failures are reported as {"error": "<kind>[: detail]"} with 400, 401, 403,
// 404, 409 or 500. Other GET requests fall back to the static file directory.
package http
