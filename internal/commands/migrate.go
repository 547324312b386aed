package commands

import (
	"fmt"
	"log"

	"classroom/backend/internal/pkg/repository/postgresql"

	"github.com/pkg/errors"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

type Scheme struct {
	Index       int
	Description string
	Query       string
}

var scheme = []Scheme{
	{
		Index:       1,
		Description: "CREATE TYPE \"user_role\" AS ENUM",
		Query: `
        CREATE TYPE "user_role" AS ENUM ('ADMIN', 'TEACHER', 'STUDENT', 'DASHBOARD');`,
	},
	{
		Index:       2,
		Description: "Create table: users.",
		Query: `
        CREATE TABLE IF NOT EXISTS users (
            id serial primary key,
            username text not null,
            password text not null,
            role user_role,
            full_name text,
            created_at timestamp default now(),
            created_by int references users(id),
            updated_at timestamp,
            updated_by int references users(id),
            deleted_at timestamp,
            deleted_by int references users(id)
        );`,
	},
	{
		Index:       3,
		Description: "Create user with username: Admin01, password: 1",
		Query: `
        INSERT INTO users(username, role, password)
        SELECT 'Admin01', 'ADMIN', '$2a$10$NKtnMwDPFSQLG6uOi4Zqheru5Ygbj9TWFHjpl478rRSaO5cJ9QuH2'
        WHERE NOT EXISTS (SELECT username FROM users WHERE username = 'Admin01');
        `,
	},
	{
		Index:       4,
		Description: "Create table: raw_schedule.",
		Query: `
        CREATE TABLE IF NOT EXISTS raw_schedule (
            id serial primary key,
            xnxq varchar(20) not null,
            course_code varchar(50) not null,
            course_name varchar(250),
            teaching_week int not null,
            week int not null,
            date date not null,
            period int not null,
            start_time time not null,
            end_time time not null,
            room varchar(100),
            hall_cluster varchar(100),
            teacher_ids text,
            teacher_names text,
            student_ids text,
            need_checkin boolean default true,
            sync_status smallint,
            last_changed timestamp default now(),
            created_at timestamp default now(),
            created_by int references users(id),
            updated_at timestamp,
            updated_by int references users(id),
            deleted_at timestamp,
            deleted_by int references users(id)
        );
        CREATE INDEX IF NOT EXISTS idx_raw_schedule_sync ON raw_schedule (xnxq, sync_status, date);`,
	},
	{
		Index:       5,
		Description: "Create table: class_sessions.",
		Query: `
        CREATE TABLE IF NOT EXISTS class_sessions (
            id serial primary key,
            course_code varchar(50) not null,
            course_name varchar(250),
            xnxq varchar(20) not null,
            teaching_week int not null,
            week int not null,
            date date not null,
            time_band varchar(10) not null,
            periods text not null,
            rooms text,
            teacher_ids text,
            teacher_names text,
            student_ids text,
            start_time time not null,
            end_time time not null,
            hall_cluster varchar(100),
            need_checkin boolean default true,
            withdrawn boolean default false,
            created_at timestamp default now(),
            updated_at timestamp,
            UNIQUE (course_code, date, time_band, xnxq)
        );`,
	},
	{
		Index:       6,
		Description: "Create table: attendance_records.",
		Query: `
        CREATE TABLE IF NOT EXISTS attendance_records (
            id serial primary key,
            session_id int not null unique references class_sessions(id),
            total_count int default 0,
            checkin_count int default 0,
            leave_count int default 0,
            absent_count int default 0,
            status varchar(20) default 'active',
            auto_open_time timestamp,
            auto_close_time timestamp,
            checkin_token varchar(64),
            created_at timestamp default now(),
            updated_at timestamp
        );`,
	},
	{
		Index:       7,
		Description: "Create table: session_students.",
		Query: `
        CREATE TABLE IF NOT EXISTS session_students (
            id serial primary key,
            session_id int not null references class_sessions(id),
            student_id varchar(50) not null,
            UNIQUE (session_id, student_id)
        );`,
	},
	{
		Index:       8,
		Description: "Create table: student_attendance.",
		Query: `
        CREATE TABLE IF NOT EXISTS student_attendance (
            id serial primary key,
            session_id int not null references class_sessions(id),
            student_id varchar(50) not null,
            status varchar(30) not null,
            reason text,
            created_at timestamp default now(),
            updated_at timestamp,
            UNIQUE (session_id, student_id)
        );`,
	},
	{
		Index:       9,
		Description: "Create table: tasks.",
		Query: `
        CREATE TABLE IF NOT EXISTS tasks (
            id serial primary key,
            parent_id int references tasks(id),
            name varchar(250) not null,
            type varchar(50) not null,
            status varchar(20) not null default 'pending',
            progress int not null default 0,
            priority int not null default 0,
            executor varchar(100),
            metadata jsonb,
            retry_count int not null default 0,
            reason text,
            error text,
            created_at timestamp default now(),
            updated_at timestamp,
            started_at timestamp,
            completed_at timestamp
        );
        CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks (parent_id);
        CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status);`,
	},
}

// Migrate creates the scheme in the database.
func Migrate(db *postgresql.Database) {
	for _, s := range scheme {
		if _, err := db.Query(s.Query); err != nil {
			log.Fatalln("migrate error", err)
		}
	}
}

func MigrateUP(db *postgresql.Database) {
	var (
		version int
		dirty   bool
		er      *string
	)
	err := db.QueryRow("SELECT version, dirty, error FROM schema_migrations").Scan(&version, &dirty, &er)
	if err != nil {
		if err.Error() == `ERROR: relation "schema_migrations" does not exist (SQLSTATE=42P01)` {
			if _, err = db.Exec(`
				CREATE TABLE IF NOT EXISTS schema_migrations (version int not null, dirty bool not null, error text);
				DELETE FROM schema_migrations;
				INSERT INTO schema_migrations (version, dirty) values (0, false);
			`); err != nil {
				log.Fatalln("migrate schema_migrations create error", err)
			}
			version = 0
			dirty = false
		} else {
			log.Fatalln("migrate schema_migrations scan: ", err)
		}
	}

	if dirty {
		for _, v := range scheme {
			if v.Index == version {
				if _, err = db.Exec(v.Query); err != nil {
					if _, err = db.Exec(fmt.Sprintf(`UPDATE schema_migrations SET error = '%s'`, err.Error())); err != nil {
						log.Fatalln("migrate error", err)
					}
					log.Fatalln(fmt.Sprintf("migrate error version: %d", version), err)
				}
				if _, err = db.Exec(`UPDATE schema_migrations SET dirty = false, error = null`); err != nil {
					log.Fatalln("migrate error", err)
				}
			}
		}
	}

	for _, s := range scheme {
		if s.Index > version {
			if _, err = db.Exec(s.Query); err != nil {
				if _, err = db.Exec(fmt.Sprintf(`UPDATE schema_migrations SET error = '%s', version = %d, dirty = true`, err.Error(), s.Index)); err != nil {
					log.Fatalln("migrate error", err)
				}
				log.Fatalln(fmt.Sprintf("migrate error version: %d", s.Index), err)
			}
			if _, err = db.Exec(fmt.Sprintf(`UPDATE schema_migrations SET version = %d`, s.Index)); err != nil {
				log.Fatalln("migrate error", err)
			}
		}
	}
}
