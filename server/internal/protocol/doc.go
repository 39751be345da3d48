// Package protocol implements the control-message layer on top of the plain
// chat channel.
//
// Inbound payloads are classified by ordered literal prefix checks:
//
//	USER_ID:<id>                                 declare the sender's userId
//	SET_ATTRIBUTE:<key>:<value>                  set one session attribute
//	SET_ATTRIBUTES_BATCH:<k1>:<v1>|<k2>:<v2>|…   set several attributes
//	GET_ATTRIBUTES                               list the sender's attributes
//
// Anything else is chat content and is broadcast as "User <userId>: <text>".
// Control replies go to the sender only — one user's session metadata never
// leaks to others. Malformed commands get a descriptive error reply and
// mutate nothing; the connection stays open.
package protocol
