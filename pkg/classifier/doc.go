// Package classifier labels Instagram accounts as fake, suspicious or real.
//
// Rules are evaluated in a fixed order and the first one that matches decides
// the label:
//
//  1. fewer than 50 followers and zero posts: fake
//  2. follow ratio above 5 and engagement below 1%: fake
//  3. empty or spam-pattern bio and fewer than 5 posts: suspicious
//  4. engagement below 2%: suspicious
//  5. otherwise: real
//
// The follow ratio is following / max(followers, 1). Thresholds and the bio
// denylist come from the classifier section of the configuration.
//
// Watch rules are optional CEL expressions over followers, following, posts,
// bio, engagement and follow_ratio. A watch rule that holds is reported in
// Result.Signals and has no effect on the label.
package classifier
