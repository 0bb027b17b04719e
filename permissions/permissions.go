package permissions

import "strings"

// Value is a bitset of permission flags. Values combine with Add and are
// tested with Has; the Administrator bit implies every other bit.
type Value uint64

const (
	CreateInstantInvite Value = 1 << 0
	KickMembers         Value = 1 << 1
	BanMembers          Value = 1 << 2
	Administrator       Value = 1 << 3
	ManageChannels      Value = 1 << 4
	ManageGuild         Value = 1 << 5
	AddReactions        Value = 1 << 6
	ReadMessages        Value = 1 << 10
	SendMessages        Value = 1 << 11
	SendTTSMessages     Value = 1 << 12
	ManageMessages      Value = 1 << 13
	EmbedLinks          Value = 1 << 14
	AttachFiles         Value = 1 << 15
	ReadMessageHistory  Value = 1 << 16
	MentionEveryone     Value = 1 << 17
	UseExternalEmojis   Value = 1 << 18
	Connect             Value = 1 << 20
	Speak               Value = 1 << 21
	MuteMembers         Value = 1 << 22
	DeafenMembers       Value = 1 << 23
	MoveMembers         Value = 1 << 24
	UseVoiceActivity    Value = 1 << 25
	ChangeNickname      Value = 1 << 26
	ManageNicknames     Value = 1 << 27
	ManageRoles         Value = 1 << 28
	ManageWebhooks      Value = 1 << 29
	ManageEmojis        Value = 1 << 30
)

// names maps each flag to its display name, in bit order.
var names = []struct {
	flag Value
	name string
}{
	{CreateInstantInvite, "create_instant_invite"},
	{KickMembers, "kick_members"},
	{BanMembers, "ban_members"},
	{Administrator, "administrator"},
	{ManageChannels, "manage_channels"},
	{ManageGuild, "manage_guild"},
	{AddReactions, "add_reactions"},
	{ReadMessages, "read_messages"},
	{SendMessages, "send_messages"},
	{SendTTSMessages, "send_tts_messages"},
	{ManageMessages, "manage_messages"},
	{EmbedLinks, "embed_links"},
	{AttachFiles, "attach_files"},
	{ReadMessageHistory, "read_message_history"},
	{MentionEveryone, "mention_everyone"},
	{UseExternalEmojis, "use_external_emojis"},
	{Connect, "connect"},
	{Speak, "speak"},
	{MuteMembers, "mute_members"},
	{DeafenMembers, "deafen_members"},
	{MoveMembers, "move_members"},
	{UseVoiceActivity, "use_voice_activity"},
	{ChangeNickname, "change_nickname"},
	{ManageNicknames, "manage_nicknames"},
	{ManageRoles, "manage_roles"},
	{ManageWebhooks, "manage_webhooks"},
	{ManageEmojis, "manage_emojis"},
}

// Add returns the union of v and every other value.
func (v Value) Add(others ...Value) Value {
	for _, o := range others {
		v |= o
	}
	return v
}

// Has reports whether every bit of p is set. A value carrying the
// Administrator bit has every permission.
func (v Value) Has(p Value) bool {
	if v&Administrator != 0 {
		return true
	}
	return v&p == p
}

// Raw returns the bitset as a plain integer for wire serialization.
func (v Value) Raw() uint64 {
	return uint64(v)
}

// Names returns the display names of the flags set on v, in bit order.
// The Administrator short-circuit is not applied; only literal bits count.
func (v Value) Names() []string {
	var out []string
	for _, n := range names {
		if v&n.flag != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

func (v Value) String() string {
	if v == 0 {
		return "none"
	}
	return strings.Join(v.Names(), "|")
}
