package postgres

const queryEvents = `
SELECT id, event_type, time_stamp, project_id, user_id, payload, result, exception
FROM events
WHERE event_type = ANY($1)
  AND time_stamp >= $2
  AND time_stamp <= $3
  AND ($4 = '' OR project_id = $4)
ORDER BY time_stamp ASC, id ASC
LIMIT $5
`

const queryProjectName = `
SELECT name FROM projects WHERE id = $1
`
