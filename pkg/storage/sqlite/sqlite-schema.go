package sqlite

// The table and column names below are fixed compatibility points with the existing
// radio database; renaming any of them breaks interoperability with deployed data.
const schema = `
BEGIN TRANSACTION;

CREATE TABLE
	IF NOT EXISTS djs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		djname TEXT NOT NULL UNIQUE,
		djtext TEXT NOT NULL DEFAULT '',
		djimage TEXT NOT NULL DEFAULT '',
		visible INTEGER NOT NULL DEFAULT 0,
		priority INTEGER NOT NULL DEFAULT 0,
		css TEXT NOT NULL DEFAULT ''
	);

CREATE TABLE
	IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user TEXT NOT NULL,
		pass TEXT NOT NULL,
		djid INTEGER NOT NULL,
		privileges INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (djid) REFERENCES djs (id)
	);

CREATE TABLE
	IF NOT EXISTS nickrequesttime (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		host TEXT NOT NULL,
		time datetime NOT NULL
	);

CREATE TABLE
	IF NOT EXISTS lastfm (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nick TEXT NOT NULL,
		user TEXT NOT NULL
	);

CREATE TABLE
	IF NOT EXISTS enick (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nick TEXT NOT NULL UNIQUE,
		dta datetime NOT NULL,
		dtb datetime,
		authcode TEXT
	);

CREATE TABLE
	IF NOT EXISTS esong (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hash TEXT NOT NULL UNIQUE CHECK (length ("hash") = 40),
		len INTEGER NOT NULL DEFAULT 0,
		meta TEXT NOT NULL DEFAULT '',
		hash_link TEXT NOT NULL DEFAULT ''
	);

CREATE TABLE
	IF NOT EXISTS eplay (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		isong INTEGER NOT NULL,
		dt datetime NOT NULL,
		FOREIGN KEY (isong) REFERENCES esong (id)
	);

CREATE TABLE
	IF NOT EXISTS efave (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		inick INTEGER NOT NULL,
		isong INTEGER NOT NULL,
		FOREIGN KEY (inick) REFERENCES enick (id),
		FOREIGN KEY (isong) REFERENCES esong (id)
	);

CREATE TABLE
	IF NOT EXISTS tracks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		artist TEXT NOT NULL DEFAULT '',
		track TEXT NOT NULL DEFAULT '',
		album TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		lastplayed datetime,
		lastrequested datetime,
		usable INTEGER NOT NULL DEFAULT 0,
		accepter TEXT NOT NULL DEFAULT '',
		lasteditor TEXT NOT NULL DEFAULT '',
		hash TEXT NOT NULL UNIQUE CHECK (length ("hash") = 40),
		priority INTEGER NOT NULL DEFAULT 0,
		requestcount INTEGER NOT NULL DEFAULT 0,
		need_reupload INTEGER NOT NULL DEFAULT 0
	);

CREATE TABLE
	IF NOT EXISTS queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type INTEGER NOT NULL DEFAULT 0,
		time datetime NOT NULL,
		song INTEGER NOT NULL,
		track INTEGER,
		ip TEXT,
		dj INTEGER NOT NULL,
		FOREIGN KEY (song) REFERENCES esong (id),
		FOREIGN KEY (track) REFERENCES tracks (id),
		FOREIGN KEY (dj) REFERENCES djs (id)
	);

CREATE TABLE
	IF NOT EXISTS relays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		relay_name TEXT NOT NULL DEFAULT '',
		relay_owner TEXT NOT NULL DEFAULT '',
		base_name TEXT NOT NULL DEFAULT '',
		port INTEGER NOT NULL DEFAULT 1130,
		mount TEXT NOT NULL DEFAULT '/main.mp3',
		bitrate INTEGER NOT NULL DEFAULT 192,
		format TEXT NOT NULL DEFAULT 'mp3',
		priority INTEGER DEFAULT 0,
		listeners INTEGER NOT NULL DEFAULT 0,
		listener_limit INTEGER,
		active INTEGER NOT NULL DEFAULT 0,
		passcode TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT 'us',
		disabled INTEGER NOT NULL DEFAULT 0
	);

COMMIT;
`
