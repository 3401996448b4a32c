package bot

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/heraldbot/herald/cache"
	"github.com/heraldbot/herald/database"
	"github.com/heraldbot/herald/kvstore"
	"github.com/heraldbot/herald/render"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errFakeNotFound = errors.New("not found")

// fakeDB is an in-memory database.DB so handler tests need no postgres.
type fakeDB struct {
	logging  map[string]*database.LoggingConfig
	welcome  map[string]*database.WelcomeConfig
	autoRole map[string]*database.AutoRoleConfig
	channels map[string][]*database.Channel
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		logging:  make(map[string]*database.LoggingConfig),
		welcome:  make(map[string]*database.WelcomeConfig),
		autoRole: make(map[string]*database.AutoRoleConfig),
		channels: make(map[string][]*database.Channel),
	}
}

func (f *fakeDB) GetConn() *sqlx.DB { return nil }
func (f *fakeDB) Close() error      { return nil }

func (f *fakeDB) GetLoggingConfig(gid string) (*database.LoggingConfig, error) {
	if gc, ok := f.logging[gid]; ok {
		return gc, nil
	}
	return nil, errFakeNotFound
}

func (f *fakeDB) UpsertLoggingConfig(gc *database.LoggingConfig) (*database.LoggingConfig, error) {
	f.logging[gc.GuildID] = gc
	return gc, nil
}

func (f *fakeDB) GetAllLoggingConfigs() ([]*database.LoggingConfig, error) { return nil, nil }

func (f *fakeDB) GetWelcomeConfig(gid string) (*database.WelcomeConfig, error) {
	if wc, ok := f.welcome[gid]; ok {
		return wc, nil
	}
	return nil, errFakeNotFound
}

func (f *fakeDB) UpsertWelcomeConfig(wc *database.WelcomeConfig) (*database.WelcomeConfig, error) {
	f.welcome[wc.GuildID] = wc
	return wc, nil
}

func (f *fakeDB) GetAllWelcomeConfigs() ([]*database.WelcomeConfig, error) { return nil, nil }

func (f *fakeDB) GetAutoRoleConfig(gid string) (*database.AutoRoleConfig, error) {
	if ac, ok := f.autoRole[gid]; ok {
		return ac, nil
	}
	return nil, errFakeNotFound
}

func (f *fakeDB) UpsertAutoRoleConfig(ac *database.AutoRoleConfig) (*database.AutoRoleConfig, error) {
	f.autoRole[ac.GuildID] = ac
	return ac, nil
}

func (f *fakeDB) GetAllAutoRoleConfigs() ([]*database.AutoRoleConfig, error) { return nil, nil }

func (f *fakeDB) GetChannels(gid string) ([]*database.Channel, error) {
	return f.channels[gid], nil
}

func (f *fakeDB) UpsertChannels(channels []*database.Channel) error {
	for _, ch := range channels {
		f.channels[ch.GuildID] = append(f.channels[ch.GuildID], ch)
	}
	return nil
}

func (f *fakeDB) DeleteGuildData(gid string) error { return nil }

type sentText struct {
	channelID string
	content   string
}

// fakeSession records outbound calls and lets a test fail one role grant or
// mark a user banned.
type fakeSession struct {
	texts     []sentText
	embeds    []*discordgo.MessageEmbed
	complexes []*discordgo.MessageSend
	roles     []string
	failRole  string
	banChecks int
	bans      map[string]string
}

func (f *fakeSession) UpdateGameStatus(idle int, name string) error  { return nil }
func (f *fakeSession) UpdateWatchStatus(idle int, name string) error { return nil }

func (f *fakeSession) RequestGuildMembers(guildID, query string, limit int, nonce string, presences bool) error {
	return nil
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.texts = append(f.texts, sentText{channelID, content})
	return &discordgo.Message{}, nil
}

func (f *fakeSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.complexes = append(f.complexes, data)
	return &discordgo.Message{}, nil
}

func (f *fakeSession) GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error {
	if roleID == f.failRole {
		return errors.New("missing permissions")
	}
	f.roles = append(f.roles, roleID)
	return nil
}

func (f *fakeSession) GuildBan(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.GuildBan, error) {
	f.banChecks++
	if reason, ok := f.bans[userID]; ok {
		return &discordgo.GuildBan{Reason: reason, User: &discordgo.User{ID: userID}}, nil
	}
	return nil, errors.New("not banned")
}

type fakeState struct {
	guilds   map[string]*discordgo.Guild
	channels map[string]*discordgo.Channel
}

func (f *fakeState) Guild(gid string) (*discordgo.Guild, error) {
	if g, ok := f.guilds[gid]; ok {
		return g, nil
	}
	return nil, discordgo.ErrStateNotFound
}

func (f *fakeState) Channel(cid string) (*discordgo.Channel, error) {
	if ch, ok := f.channels[cid]; ok {
		return ch, nil
	}
	return nil, discordgo.ErrStateNotFound
}

func (f *fakeState) Role(gid, rid string) (*discordgo.Role, error) {
	return nil, discordgo.ErrStateNotFound
}

func (f *fakeState) TextChannel(gid, cid string) (*discordgo.Channel, error) {
	ch, ok := f.channels[cid]
	if !ok || ch.GuildID != gid {
		return nil, discordgo.ErrStateNotFound
	}
	return ch, nil
}

func (f *fakeState) UserChannelPermissions(uid, cid string) (int64, error) {
	return discordgo.PermissionAdministrator, nil
}

func newTestRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.NRGBA{R: 20, G: 20, B: 30, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "default.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))

	r, err := render.NewRenderer(&render.Config{
		Log:     zap.NewNop(),
		Sources: map[string]string{render.BackgroundDefault: path},
	})
	require.NoError(t, err)
	return r
}

func testContext(t *testing.T) (*Context, *fakeSession) {
	t.Helper()
	db := newFakeDB()
	store, err := kvstore.NewStore(zap.NewNop(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	b := &Bot{
		configs:  cache.NewManager(db, zap.NewNop()),
		store:    store,
		log:      zap.NewNop(),
		db:       db,
		renderer: newTestRenderer(t),
	}
	sess := &fakeSession{bans: make(map[string]string)}
	state := &fakeState{
		guilds: map[string]*discordgo.Guild{"G1": {ID: "G1", Name: "Acme"}},
		channels: map[string]*discordgo.Channel{
			"C1":   {ID: "C1", GuildID: "G1", Type: discordgo.ChannelTypeGuildText},
			"CLOG": {ID: "CLOG", GuildID: "G1", Type: discordgo.ChannelTypeGuildText},
		},
	}
	return &Context{b: b, s: sess, d: state}, sess
}

func testGuild(t *testing.T, c *Context) *discordgo.Guild {
	t.Helper()
	g, err := c.d.Guild("G1")
	require.NoError(t, err)
	return g
}

func TestWelcomeNewMemberSendsSubstitutedText(t *testing.T) {
	c, sess := testContext(t)
	require.NoError(t, c.b.configs.SetWelcomeConfig(&database.WelcomeConfig{
		GuildID:          "G1",
		Enabled:          true,
		WelcomeChannelID: "C1",
		Message:          "Welcome to @server, @username!",
	}))

	welcomeNewMember(c, testGuild(t, c), &discordgo.Member{
		GuildID: "G1",
		User:    &discordgo.User{ID: "U2", Username: "bob"},
	})

	require.Len(t, sess.texts, 1)
	assert.Equal(t, "C1", sess.texts[0].channelID)
	assert.Equal(t, "Welcome to Acme, bob!", sess.texts[0].content)
}

func TestWelcomeNewMemberAttachesImage(t *testing.T) {
	c, sess := testContext(t)
	require.NoError(t, c.b.configs.SetWelcomeConfig(&database.WelcomeConfig{
		GuildID:          "G1",
		Enabled:          true,
		WelcomeChannelID: "C1",
		Message:          "hi @username",
		IncludeImage:     true,
		Background:       render.BackgroundDefault,
		TextColor:        "#FFFFFF",
	}))

	welcomeNewMember(c, testGuild(t, c), &discordgo.Member{
		GuildID: "G1",
		User:    &discordgo.User{ID: "U2", Username: "bob"},
	})

	require.Len(t, sess.complexes, 1)
	msg := sess.complexes[0]
	assert.Equal(t, "hi bob", msg.Content)
	require.Len(t, msg.Files, 1)
	assert.Equal(t, "welcome.png", msg.Files[0].Name)
	data, err := io.ReadAll(msg.Files[0].Reader)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestWelcomeAbsentConfigSendsNothing(t *testing.T) {
	c, sess := testContext(t)

	welcomeNewMember(c, testGuild(t, c), &discordgo.Member{
		GuildID: "G1",
		User:    &discordgo.User{ID: "U2", Username: "bob"},
	})

	assert.Empty(t, sess.texts)
	assert.Empty(t, sess.complexes)
}

func TestAutoRoleFailureDoesNotStopSiblings(t *testing.T) {
	c, sess := testContext(t)
	require.NoError(t, c.b.configs.SetAutoRoleConfig(&database.AutoRoleConfig{
		GuildID: "G1",
		Enabled: true,
		RoleIDs: []string{"R1", "R2", "R3"},
	}))
	sess.failRole = "R2"

	assignAutoRoles(c, testGuild(t, c), &discordgo.Member{
		GuildID: "G1",
		User:    &discordgo.User{ID: "U2", Username: "bob"},
	})

	assert.Equal(t, []string{"R1", "R3"}, sess.roles)
}

func TestJoinFlowRoleFailureDoesNotAbortWelcome(t *testing.T) {
	c, sess := testContext(t)
	require.NoError(t, c.b.configs.SetWelcomeConfig(&database.WelcomeConfig{
		GuildID:          "G1",
		Enabled:          true,
		WelcomeChannelID: "C1",
		Message:          "hey @username",
	}))
	require.NoError(t, c.b.configs.SetAutoRoleConfig(&database.AutoRoleConfig{
		GuildID: "G1",
		Enabled: true,
		RoleIDs: []string{"R1"},
	}))
	sess.failRole = "R1"

	guildMemberAddHandler(c, &discordgo.GuildMemberAdd{Member: &discordgo.Member{
		GuildID: "G1",
		User:    &discordgo.User{ID: "U2", Username: "bob"},
	}})

	require.Len(t, sess.texts, 1)
	assert.Equal(t, "hey bob", sess.texts[0].content)
	assert.Empty(t, sess.roles)
}

func TestMemberUpdateUnknownOldRolesSendsNothing(t *testing.T) {
	c, sess := testContext(t)
	require.NoError(t, c.b.configs.SetLoggingConfig(&database.LoggingConfig{
		GuildID:      "G1",
		Enabled:      true,
		LogChannelID: "CLOG",
		RolesAdded:   true,
	}))

	// nothing cached for this member yet; a nickname change after startup
	// must not report every current role as newly added
	guildMemberUpdateHandler(c, &discordgo.GuildMemberUpdate{Member: &discordgo.Member{
		GuildID: "G1",
		User:    &discordgo.User{ID: "U2", Username: "bob"},
		Roles:   []string{"R1", "R2"},
	}})
	assert.Empty(t, sess.embeds)

	// the update cached the member, so a real grant is reported
	guildMemberUpdateHandler(c, &discordgo.GuildMemberUpdate{Member: &discordgo.Member{
		GuildID: "G1",
		User:    &discordgo.User{ID: "U2", Username: "bob"},
		Roles:   []string{"R1", "R2", "R3"},
	}})
	require.Len(t, sess.embeds, 1)
	assert.Equal(t, "Roles Added", sess.embeds[0].Title)
	assert.Equal(t, "<@&R3>", fieldValue(t, sess.embeds[0], "Added Roles"))
}

func TestEmbedOnlyUpdateKeepsStoredContent(t *testing.T) {
	c, sess := testContext(t)
	require.NoError(t, c.b.configs.SetLoggingConfig(&database.LoggingConfig{
		GuildID:          "G1",
		Enabled:          true,
		LogChannelID:     "CLOG",
		MessageDeletions: true,
		MessageEdits:     true,
	}))
	require.NoError(t, c.b.store.SetMessage(testMessage("hello")))

	// an embed/attachment update arrives with empty content
	messageUpdateHandler(c, &discordgo.MessageUpdate{Message: testMessage("")})
	assert.Empty(t, sess.embeds)

	stored, err := c.b.store.GetMessage("G1", "C2", "M1")
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Message.Content)

	// a later deletion still reports the original text
	messageDeleteHandler(c, &discordgo.MessageDelete{Message: &discordgo.Message{
		ID:        "M1",
		ChannelID: "C2",
		GuildID:   "G1",
	}})
	require.Len(t, sess.embeds, 1)
	assert.Equal(t, "Message Deleted", sess.embeds[0].Title)
	assert.Equal(t, "hello", fieldValue(t, sess.embeds[0], "Content"))
}

func TestMemberRemoveSkipsBanLookupWhenLeaveLoggingOff(t *testing.T) {
	c, sess := testContext(t)

	guildMemberRemoveHandler(c, &discordgo.GuildMemberRemove{Member: &discordgo.Member{
		GuildID: "G1",
		User:    &discordgo.User{ID: "U2", Username: "bob"},
	}})

	assert.Zero(t, sess.banChecks)
	assert.Empty(t, sess.embeds)
}

func TestMemberRemoveDeliversLeave(t *testing.T) {
	c, sess := testContext(t)
	require.NoError(t, c.b.configs.SetLoggingConfig(&database.LoggingConfig{
		GuildID:      "G1",
		Enabled:      true,
		LogChannelID: "CLOG",
		UserLeaves:   true,
	}))
	require.NoError(t, c.b.store.SetMember(&discordgo.Member{
		GuildID:  "G1",
		User:     &discordgo.User{ID: "U2", Username: "bob"},
		JoinedAt: time.Now().Add(-30 * time.Hour),
	}))

	guildMemberRemoveHandler(c, &discordgo.GuildMemberRemove{Member: &discordgo.Member{
		GuildID: "G1",
		User:    &discordgo.User{ID: "U2", Username: "bob"},
	}})

	assert.Equal(t, 1, sess.banChecks)
	require.Len(t, sess.embeds, 1)
	assert.Equal(t, "User Left", sess.embeds[0].Title)
	assert.Equal(t, "1 days, 6 hours", fieldValue(t, sess.embeds[0], "Time in Server"))

	// the cached member record is dropped after logging
	_, err := c.b.store.GetMember("G1", "U2")
	assert.Error(t, err)
}
