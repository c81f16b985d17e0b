// Package smoke checks that a configured parking garage deployment is usable
// by the end-to-end suite: the front end answers, the valid account can log
// in and the invalid e-mail is rejected.
package smoke
